package vm

import "strconv"

// evalTest implements the ‘test’ expression language: string tests, file
// tests, and integer comparisons.
func evalTest(m *Machine, args []string) (bool, commandResult) {
	switch len(args) {
	case 0:
		return false, nil
	case 1:
		return args[0] != "", nil
	case 2:
		if args[0] == "!" {
			ok, res := evalTest(m, args[1:])
			return !ok, res
		}
		return evalUnary(m, args[0], args[1])
	case 3:
		if args[0] == "!" {
			ok, res := evalTest(m, args[1:])
			return !ok, res
		}
		return evalBinary(args[1], args[0], args[2])
	case 4:
		if args[0] == "!" {
			ok, res := evalTest(m, args[1:])
			return !ok, res
		}
	}
	return false, cmdErrorf("test", 2, "too many arguments")
}

func evalUnary(m *Machine, op, arg string) (bool, commandResult) {
	switch op {
	case "-n":
		return arg != "", nil
	case "-z":
		return arg == "", nil
	}

	st, err := m.Fs.Stat(arg)
	if err != nil {
		switch op {
		case "-e", "-f", "-d", "-s", "-r", "-w", "-x":
			return false, nil
		}
		return false, cmdErrorf("test", 2, "unknown operator ‘%s’", op)
	}

	switch op {
	case "-e":
		return true, nil
	case "-f":
		return st.Mode().IsRegular(), nil
	case "-d":
		return st.IsDir(), nil
	case "-s":
		return st.Size() > 0, nil
	case "-r":
		return st.Mode().Perm()&0444 != 0, nil
	case "-w":
		return st.Mode().Perm()&0222 != 0, nil
	case "-x":
		return st.Mode().Perm()&0111 != 0 || st.IsDir(), nil
	}
	return false, cmdErrorf("test", 2, "unknown operator ‘%s’", op)
}

func evalBinary(op, lhs, rhs string) (bool, commandResult) {
	switch op {
	case "=":
		return lhs == rhs, nil
	case "!=":
		return lhs != rhs, nil
	}

	a, err1 := strconv.Atoi(lhs)
	b, err2 := strconv.Atoi(rhs)

	switch op {
	case "-eq", "-ne", "-gt", "-ge", "-lt", "-le":
		if err1 != nil || err2 != nil {
			bad := lhs
			if err1 == nil {
				bad = rhs
			}
			return false, cmdErrorf("test", 2,
				"‘%s’: integer expression expected", bad)
		}
	default:
		return false, cmdErrorf("test", 2, "unknown operator ‘%s’", op)
	}

	switch op {
	case "-eq":
		return a == b, nil
	case "-ne":
		return a != b, nil
	case "-gt":
		return a > b, nil
	case "-ge":
		return a >= b, nil
	case "-lt":
		return a < b, nil
	case "-le":
		return a <= b, nil
	}
	panic("unreachable")
}
