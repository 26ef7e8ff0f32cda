// Process of evaluation:
//
//	Program Text -> lex -> Tokens -> parse -> Abstract Syntax Tree (ast) ->
//	codegen -> Intermediate Representation (ir) -> link ->
//	Engine-resident Unit (jit) -> call -> Numeric Result
//
// Each top-level input item compiles into its own unit. Named definitions
// stay linked for the session; anonymous expressions are invoked once and
// unloaded.
package compiler
