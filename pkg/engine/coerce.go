package engine

import (
	"strings"

	"github.com/JayabrataBasu/VeridicalDB/pkg/catalog"
)

// numericPromote returns the two operand values as float64, promoting
// INT32/FLOAT32 to a common numeric type. Returns an error for any operand
// that isn't numeric.
func numericPromote(a, b catalog.Value) (float64, float64, error) {
	af, err := asFloat64(a)
	if err != nil {
		return 0, 0, err
	}
	bf, err := asFloat64(b)
	if err != nil {
		return 0, 0, err
	}
	return af, bf, nil
}

func asFloat64(v catalog.Value) (float64, error) {
	switch v.Type {
	case catalog.TypeInt32:
		return float64(v.Int32), nil
	case catalog.TypeFloat32:
		return float64(v.Float), nil
	default:
		return 0, errArithmetic("cannot use %s value in arithmetic expression", v.Type)
	}
}

// resultIsFloat reports whether an arithmetic result between a and b should
// be FLOAT (if either operand is FLOAT) or INT (if both are INT).
func resultIsFloat(a, b catalog.Value) bool {
	return a.Type == catalog.TypeFloat32 || b.Type == catalog.TypeFloat32
}

// compareValues compares two values of compatible types. Returns -1, 0, 1.
// NULL comparisons are handled by the caller (three-valued logic lives in
// eval.go); this function assumes neither operand is NULL.
func compareValues(a, b catalog.Value) (int, error) {
	switch {
	case isNumeric(a.Type) && isNumeric(b.Type):
		af, bf, err := numericPromote(a, b)
		if err != nil {
			return 0, err
		}
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	case a.Type == catalog.TypeChar && b.Type == catalog.TypeChar:
		return strings.Compare(a.Text, b.Text), nil
	case a.Type == catalog.TypeBool && b.Type == catalog.TypeBool:
		switch {
		case a.Bool == b.Bool:
			return 0, nil
		case !a.Bool && b.Bool:
			return -1, nil
		default:
			return 1, nil
		}
	case a.Type == catalog.TypeDate && b.Type == catalog.TypeDate:
		switch {
		case a.Date.Before(b.Date):
			return -1, nil
		case a.Date.After(b.Date):
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, errTypeMismatch("cannot compare %s with %s", a.Type, b.Type)
	}
}

func isNumeric(t catalog.DataType) bool {
	return t == catalog.TypeInt32 || t == catalog.TypeFloat32
}

// typesCompatible reports whether two column types may be compared or
// joined against each other (numeric-numeric, or exact match otherwise).
func typesCompatible(a, b catalog.DataType) bool {
	if isNumeric(a) && isNumeric(b) {
		return true
	}
	return a == b
}
