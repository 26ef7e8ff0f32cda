package ir

type (
	// Value identifies an instruction within its function. Instruction
	// operands reference other instructions by Value id. Function
	// parameters are materialized as the first len(Params) instructions,
	// so parameter i is Value(i).
	Value int

	// Label identifies a basic block within its function.
	Label int

	// Module is one compilation unit: a self-contained container of
	// declarations and definitions linked into an engine as a single
	// piece.
	Module struct {
		Name  string
		Funcs []*Func
	}

	// Func takes float64 parameters and returns a float64. A Func with no
	// blocks is a declaration.
	Func struct {
		Name   string
		Params []string

		Instrs []any
		Blocks []*Block
	}

	// Block is a straight-line run of instructions ending in exactly one
	// terminator (Br, CondBr or Ret).
	Block struct {
		Label Label
		Code  []Value
	}

	// Instruction payloads. Every instruction yields a float64 value
	// except the terminators.

	Param struct {
		Num  int
		Name string
	}

	Const float64

	FAdd struct{ L, R Value }
	FSub struct{ L, R Value }
	FMul struct{ L, R Value }

	// FCmpULT is an unordered-or-less-than comparison: true if either
	// operand is NaN or L < R. Yields 1 or 0.
	FCmpULT struct{ L, R Value }

	// FCmpONE is an ordered-and-not-equal comparison: true if neither
	// operand is NaN and L != R. Yields 1 or 0.
	FCmpONE struct{ L, R Value }

	// UIToFP widens a comparison result to the numeric type.
	UIToFP struct{ X Value }

	Call struct {
		Callee string
		Args   []Value
	}

	// Phi selects the incoming value matching the predecessor block the
	// control flow arrived from.
	Phi []PhiIncoming

	PhiIncoming struct {
		Block Label
		Value Value
	}

	Br struct {
		Dst Label
	}

	CondBr struct {
		Cond Value
		Then Label
		Else Label
	}

	Ret struct {
		X Value
	}
)

// Nil is the id no instruction has; returned alongside errors.
const Nil Value = -1

func NewModule(name string) *Module {
	return &Module{Name: name}
}

// Func returns the module's function with the given name, or nil.
func (m *Module) Func(name string) *Func {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}

	return nil
}

// RemoveFunc drops the named function from the module. Used to discard a
// definition whose body failed to generate so no dangling residue is linked.
func (m *Module) RemoveFunc(name string) {
	for i, f := range m.Funcs {
		if f.Name == name {
			m.Funcs = append(m.Funcs[:i], m.Funcs[i+1:]...)
			return
		}
	}
}

// Declaration reports whether f has no body.
func (f *Func) Declaration() bool {
	return len(f.Blocks) == 0
}

// ParamValue returns the Value id of parameter i.
func (f *Func) ParamValue(i int) Value {
	return Value(i)
}
