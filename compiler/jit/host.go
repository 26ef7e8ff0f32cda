package jit

import "fmt"

// putchard writes the character of its numeric argument's code.
func (e *Engine) putchard(x float64) float64 {
	_, _ = e.out.Write([]byte{byte(x)})

	return 0
}

// printd prints its argument as "%f" with a newline.
func (e *Engine) printd(x float64) float64 {
	_, _ = fmt.Fprintf(e.out, "%f\n", x)

	return 0
}
