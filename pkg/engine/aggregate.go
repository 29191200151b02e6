package engine

import (
	"github.com/JayabrataBasu/VeridicalDB/pkg/catalog"
	"github.com/JayabrataBasu/VeridicalDB/pkg/sql"
)

// aggAccumulator folds one matched row's argument value into a running
// aggregate. COUNT counts rows regardless of the argument's type; MIN, MAX,
// SUM, and AVG require a numeric argument (spec §4.6).
type aggAccumulator struct {
	fn string

	count int64
	sum   float64
	isFloat bool

	min, max     float64
	haveMinMax   bool
}

func newAccumulator(fn string) *aggAccumulator {
	return &aggAccumulator{fn: fn}
}

// add folds one row's argument value (nil for COUNT(*)) into the
// accumulator. NULL argument values are skipped for MIN/MAX/SUM/AVG; COUNT,
// with or without an argument, counts every matched row, NULLs included.
func (a *aggAccumulator) add(v *catalog.Value) error {
	if a.fn == "COUNT" {
		a.count++
		return nil
	}
	if v == nil || v.IsNull {
		return nil
	}
	if !isNumeric(v.Type) {
		return errAggregateType("%s requires a numeric argument, got %s", a.fn, v.Type)
	}
	f, err := asFloat64(*v)
	if err != nil {
		return errAggregateType("%s requires a numeric argument: %v", a.fn, err)
	}
	if v.Type == catalog.TypeFloat32 {
		a.isFloat = true
	}

	a.count++
	a.sum += f
	if !a.haveMinMax {
		a.min, a.max = f, f
		a.haveMinMax = true
	} else {
		if f < a.min {
			a.min = f
		}
		if f > a.max {
			a.max = f
		}
	}
	return nil
}

// result yields the final aggregate value. AVG over zero matched rows is
// NULL; COUNT over zero rows is 0; MIN/MAX/SUM over zero rows are NULL
// (there is no identity element to report).
func (a *aggAccumulator) result() catalog.Value {
	switch a.fn {
	case "COUNT":
		return catalog.NewInt32(int32(a.count))
	case "SUM":
		if a.count == 0 {
			return catalog.Null(catalog.TypeFloat32)
		}
		return a.numericResult(a.sum)
	case "AVG":
		if a.count == 0 {
			return catalog.Null(catalog.TypeFloat32)
		}
		return catalog.NewFloat32(float32(a.sum / float64(a.count)))
	case "MIN":
		if !a.haveMinMax {
			return catalog.Null(catalog.TypeFloat32)
		}
		return a.numericResult(a.min)
	case "MAX":
		if !a.haveMinMax {
			return catalog.Null(catalog.TypeFloat32)
		}
		return a.numericResult(a.max)
	default:
		return catalog.Null(catalog.TypeFloat32)
	}
}

func (a *aggAccumulator) numericResult(f float64) catalog.Value {
	if a.isFloat {
		return catalog.NewFloat32(float32(f))
	}
	return catalog.NewInt32(int32(f))
}

// EvalAggregates folds every matched row (delivered via the row-producing
// loop in visit) into one accumulator per projection expression, returning
// the final row of aggregate results. exprs must all be *sql.AggregateExpr
// except COUNT(*) which sql.Star as Arg represents as a nil Arg.
func EvalAggregates(eval *Evaluator, exprs []*sql.AggregateExpr, driveRows func(func() error) error) ([]catalog.Value, error) {
	accs := make([]*aggAccumulator, len(exprs))
	for i, e := range exprs {
		accs[i] = newAccumulator(e.Func)
	}

	err := driveRows(func() error {
		for i, e := range exprs {
			if e.Arg == nil {
				if err := accs[i].add(nil); err != nil {
					return err
				}
				continue
			}
			v, err := eval.Eval(e.Arg)
			if err != nil {
				return err
			}
			if err := accs[i].add(&v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	results := make([]catalog.Value, len(accs))
	for i, a := range accs {
		results[i] = a.result()
	}
	return results, nil
}
