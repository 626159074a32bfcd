package parser

import "fmt"

// LexError is a tokenization failure
type LexError string

func (e LexError) Error() string {
	return string(e)
}

// ParseError is a syntax error phrased as an expectation
type ParseError struct {
	Want string
	Got  string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("Expected %s but got %s", e.Want, e.Got)
}
