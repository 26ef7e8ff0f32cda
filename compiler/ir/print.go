package ir

import (
	"fmt"
	"strings"
)

// Textual dump of generated units. The format is stable enough to read in
// the REPL but is not a parseable interchange format.

func (m *Module) String() string {
	return string(m.Append(nil))
}

func (m *Module) Append(b []byte) []byte {
	b = fmt.Appendf(b, "; unit %s\n", m.Name)

	for _, f := range m.Funcs {
		b = f.Append(b)
	}

	return b
}

func (f *Func) String() string {
	return string(f.Append(nil))
}

func (f *Func) Append(b []byte) []byte {
	params := strings.Join(f.Params, " ")

	if f.Declaration() {
		return fmt.Appendf(b, "declare @%s(%s)\n", f.Name, params)
	}

	b = fmt.Appendf(b, "define @%s(%s) {\n", f.Name, params)

	for _, bb := range f.Blocks {
		b = fmt.Appendf(b, "b%d:\n", bb.Label)

		for _, id := range bb.Code {
			b = f.appendInstr(b, id)
		}
	}

	b = append(b, "}\n"...)

	return b
}

func (f *Func) appendInstr(b []byte, id Value) []byte {
	switch x := f.Instrs[id].(type) {
	case Const:
		b = fmt.Appendf(b, "  %%%d = const %v\n", id, float64(x))
	case FAdd:
		b = fmt.Appendf(b, "  %%%d = fadd %%%d, %%%d\n", id, x.L, x.R)
	case FSub:
		b = fmt.Appendf(b, "  %%%d = fsub %%%d, %%%d\n", id, x.L, x.R)
	case FMul:
		b = fmt.Appendf(b, "  %%%d = fmul %%%d, %%%d\n", id, x.L, x.R)
	case FCmpULT:
		b = fmt.Appendf(b, "  %%%d = fcmp ult %%%d, %%%d\n", id, x.L, x.R)
	case FCmpONE:
		b = fmt.Appendf(b, "  %%%d = fcmp one %%%d, %%%d\n", id, x.L, x.R)
	case UIToFP:
		b = fmt.Appendf(b, "  %%%d = uitofp %%%d\n", id, x.X)
	case Call:
		b = fmt.Appendf(b, "  %%%d = call @%s(", id, x.Callee)

		for i, a := range x.Args {
			if i != 0 {
				b = append(b, ", "...)
			}

			b = fmt.Appendf(b, "%%%d", a)
		}

		b = append(b, ")\n"...)
	case Phi:
		b = fmt.Appendf(b, "  %%%d = phi", id)

		for i, in := range x {
			if i != 0 {
				b = append(b, ',')
			}

			b = fmt.Appendf(b, " [b%d %%%d]", in.Block, in.Value)
		}

		b = append(b, '\n')
	case Br:
		b = fmt.Appendf(b, "  br b%d\n", x.Dst)
	case CondBr:
		b = fmt.Appendf(b, "  br %%%d, b%d, b%d\n", x.Cond, x.Then, x.Else)
	case Ret:
		b = fmt.Appendf(b, "  ret %%%d\n", x.X)
	default:
		b = fmt.Appendf(b, "  %%%d = %v\n", id, x)
	}

	return b
}
