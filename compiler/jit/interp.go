package jit

import (
	"context"
	"math"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/kaleidolang/kaleido/compiler/ir"
)

// call evaluates a linked function. Verified IR is trusted here: blocks end
// in exactly one terminator and phis agree with their predecessors.
func (e *Engine) call(ctx context.Context, f *ir.Func, args []float64) (float64, error) {
	if tr := tlog.SpanFromContext(ctx); tr.If("eval") {
		tr.Printw("eval", "func", f.Name, "args", args, "from", loc.Callers(2, 2))
	}

	if f.Declaration() {
		return e.dispatch(ctx, f.Name, args)
	}

	if len(args) != len(f.Params) {
		return 0, errors.New("incorrect number of arguments passed: %v takes %d, given %d",
			f.Name, len(f.Params), len(args))
	}

	vals := make([]float64, len(f.Instrs))
	copy(vals, args) // parameters are the first instructions

	prev := ir.Label(-1)
	bb := f.Blocks[0]

	for {
		next := ir.Label(-1)
		done := false

		var ret float64

		for _, id := range bb.Code {
			switch x := f.Instrs[id].(type) {
			case ir.Param:
				// seeded above
			case ir.Const:
				vals[id] = float64(x)
			case ir.FAdd:
				vals[id] = vals[x.L] + vals[x.R]
			case ir.FSub:
				vals[id] = vals[x.L] - vals[x.R]
			case ir.FMul:
				vals[id] = vals[x.L] * vals[x.R]
			case ir.FCmpULT:
				vals[id] = b2f(vals[x.L] < vals[x.R] || math.IsNaN(vals[x.L]) || math.IsNaN(vals[x.R]))
			case ir.FCmpONE:
				vals[id] = b2f(vals[x.L] != vals[x.R] && !math.IsNaN(vals[x.L]) && !math.IsNaN(vals[x.R]))
			case ir.UIToFP:
				vals[id] = vals[x.X]
			case ir.Phi:
				for _, in := range x {
					if in.Block == prev {
						vals[id] = vals[in.Value]
						break
					}
				}
			case ir.Call:
				callArgs := make([]float64, len(x.Args))
				for i, a := range x.Args {
					callArgs[i] = vals[a]
				}

				r, err := e.dispatch(ctx, x.Callee, callArgs)
				if err != nil {
					return 0, errors.Wrap(err, "call %v", x.Callee)
				}

				vals[id] = r
			case ir.Br:
				next = x.Dst
			case ir.CondBr:
				if vals[x.Cond] != 0 {
					next = x.Then
				} else {
					next = x.Else
				}
			case ir.Ret:
				ret = vals[x.X]
				done = true
			default:
				return 0, errors.New("unknown instruction: %T", x)
			}
		}

		if done {
			return ret, nil
		}

		prev = bb.Label
		bb = f.Blocks[next]
	}
}

func b2f(b bool) float64 {
	if b {
		return 1
	}

	return 0
}
