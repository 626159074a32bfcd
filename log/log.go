// Package log prints shell diagnostics to the standard error in the
// manner of the err(3) family: prefixed with the program name and
// terminated with a newline.
package log

import (
	"fmt"
	"os"
)

// Err prints a diagnostic according to format, like warnx(3)
func Err(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "posh: "+format+"\n", args...)
}

// Fatal prints a diagnostic and exits the shell, like errx(3)
func Fatal(format string, args ...any) {
	Err(format, args...)
	os.Exit(1)
}
