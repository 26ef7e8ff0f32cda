package ir

type (
	// Builder appends instructions to an insertion point: a block within a
	// function. It is the only way code generation mutates a module.
	Builder struct {
		m  *Module
		f  *Func
		bb *Block
	}
)

func NewBuilder(m *Module) *Builder {
	return &Builder{m: m}
}

func (b *Builder) Module() *Module { return b.m }

// Func returns the function currently being built.
func (b *Builder) Func() *Func { return b.f }

// InsertBlock returns the block new instructions are appended to. Code
// generation of a subtree may move the insertion point, so callers that
// need the block a value was produced in read this after generating it.
func (b *Builder) InsertBlock() *Block { return b.bb }

// NewFunc adds a declaration of name to the module with the language's
// single numeric type for every parameter and the return value. Parameters
// are materialized as the first instructions so they are addressable as
// values.
func (b *Builder) NewFunc(name string, params []string) *Func {
	f := &Func{Name: name, Params: params}

	for i, p := range params {
		f.Instrs = append(f.Instrs, Param{Num: i, Name: p})
	}

	b.m.Funcs = append(b.m.Funcs, f)

	return f
}

// NewBlock appends an empty basic block to f.
func (b *Builder) NewBlock(f *Func) *Block {
	bb := &Block{Label: Label(len(f.Blocks))}
	f.Blocks = append(f.Blocks, bb)

	return bb
}

// SetInsert moves the insertion point to bb within f.
func (b *Builder) SetInsert(f *Func, bb *Block) {
	b.f, b.bb = f, bb
}

func (b *Builder) add(x any) Value {
	id := Value(len(b.f.Instrs))
	b.f.Instrs = append(b.f.Instrs, x)
	b.bb.Code = append(b.bb.Code, id)

	return id
}

func (b *Builder) Const(v float64) Value { return b.add(Const(v)) }

func (b *Builder) FAdd(l, r Value) Value { return b.add(FAdd{L: l, R: r}) }
func (b *Builder) FSub(l, r Value) Value { return b.add(FSub{L: l, R: r}) }
func (b *Builder) FMul(l, r Value) Value { return b.add(FMul{L: l, R: r}) }

func (b *Builder) FCmpULT(l, r Value) Value { return b.add(FCmpULT{L: l, R: r}) }
func (b *Builder) FCmpONE(l, r Value) Value { return b.add(FCmpONE{L: l, R: r}) }
func (b *Builder) UIToFP(x Value) Value     { return b.add(UIToFP{X: x}) }

func (b *Builder) Call(callee string, args []Value) Value {
	return b.add(Call{Callee: callee, Args: args})
}

// Phi emits a merge instruction. Incoming edges may be added later with
// AddIncoming, which loop code generation needs for the back edge.
func (b *Builder) Phi(incoming ...PhiIncoming) Value {
	return b.add(Phi(incoming))
}

// AddIncoming registers v as the phi's incoming value on the edge from blk.
func (b *Builder) AddIncoming(phi Value, blk Label, v Value) {
	p := b.f.Instrs[phi].(Phi)
	b.f.Instrs[phi] = append(p, PhiIncoming{Block: blk, Value: v})
}

func (b *Builder) Br(dst Label) {
	b.add(Br{Dst: dst})
}

func (b *Builder) CondBr(cond Value, then, els Label) {
	b.add(CondBr{Cond: cond, Then: then, Else: els})
}

func (b *Builder) Ret(x Value) {
	b.add(Ret{X: x})
}
