package ir

import (
	"tlog.app/go/errors"
)

// Verify checks structural consistency of the module: every definition's
// blocks are well formed and every phi agrees with its block's predecessors.
func (m *Module) Verify() error {
	for _, f := range m.Funcs {
		err := f.Verify()
		if err != nil {
			return errors.Wrap(err, "func %v", f.Name)
		}
	}

	return nil
}

// Verify checks a single function. Declarations are trivially consistent.
func (f *Func) Verify() (err error) {
	if f.Declaration() {
		return nil
	}

	preds := make(map[Label][]Label)

	for _, bb := range f.Blocks {
		if len(bb.Code) == 0 {
			return errors.New("empty block b%d", bb.Label)
		}

		for i, id := range bb.Code {
			if id < 0 || int(id) >= len(f.Instrs) {
				return errors.New("b%d: instruction id out of range: %d", bb.Label, id)
			}

			x := f.Instrs[id]

			term := isTerminator(x)
			last := i == len(bb.Code)-1

			if term != last {
				if term {
					return errors.New("b%d: terminator in the middle of the block", bb.Label)
				}

				return errors.New("b%d: block does not end in a terminator", bb.Label)
			}

			err = f.verifyOperands(x)
			if err != nil {
				return errors.Wrap(err, "b%d: %%%d", bb.Label, id)
			}

			switch x := x.(type) {
			case Br:
				preds[x.Dst] = append(preds[x.Dst], bb.Label)
			case CondBr:
				preds[x.Then] = append(preds[x.Then], bb.Label)
				preds[x.Else] = append(preds[x.Else], bb.Label)
			}
		}
	}

	for _, bb := range f.Blocks {
		err = f.verifyPhis(bb, preds[bb.Label])
		if err != nil {
			return errors.Wrap(err, "b%d", bb.Label)
		}
	}

	return nil
}

// verifyPhis checks phis appear only at the start of the block and that
// their incoming edges match the block's predecessors exactly.
func (f *Func) verifyPhis(bb *Block, preds []Label) error {
	body := false

	for _, id := range bb.Code {
		phi, ok := f.Instrs[id].(Phi)
		if !ok {
			body = true
			continue
		}

		if body {
			return errors.New("phi %%%d after non-phi instruction", id)
		}

		if len(phi) != len(preds) {
			return errors.New("phi %%%d has %d incoming edges, block has %d predecessors", id, len(phi), len(preds))
		}

		for _, in := range phi {
			if !containsLabel(preds, in.Block) {
				return errors.New("phi %%%d: incoming block b%d is not a predecessor", id, in.Block)
			}
		}
	}

	return nil
}

func (f *Func) verifyOperands(x any) error {
	check := func(vs ...Value) error {
		for _, v := range vs {
			if v < 0 || int(v) >= len(f.Instrs) {
				return errors.New("operand out of range: %d", v)
			}
		}

		return nil
	}

	label := func(ls ...Label) error {
		for _, l := range ls {
			if l < 0 || int(l) >= len(f.Blocks) {
				return errors.New("label out of range: b%d", l)
			}
		}

		return nil
	}

	switch x := x.(type) {
	case Param, Const:
		return nil
	case FAdd:
		return check(x.L, x.R)
	case FSub:
		return check(x.L, x.R)
	case FMul:
		return check(x.L, x.R)
	case FCmpULT:
		return check(x.L, x.R)
	case FCmpONE:
		return check(x.L, x.R)
	case UIToFP:
		return check(x.X)
	case Call:
		return check(x.Args...)
	case Phi:
		for _, in := range x {
			if err := check(in.Value); err != nil {
				return err
			}
			if err := label(in.Block); err != nil {
				return err
			}
		}

		return nil
	case Br:
		return label(x.Dst)
	case CondBr:
		if err := check(x.Cond); err != nil {
			return err
		}

		return label(x.Then, x.Else)
	case Ret:
		return check(x.X)
	default:
		return errors.New("unknown instruction: %T", x)
	}
}

func isTerminator(x any) bool {
	switch x.(type) {
	case Br, CondBr, Ret:
		return true
	}

	return false
}

func containsLabel(l []Label, x Label) bool {
	for _, y := range l {
		if y == x {
			return true
		}
	}

	return false
}
