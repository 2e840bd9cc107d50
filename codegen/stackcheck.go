package codegen

// Depth tracks the hardware stack's push/pop balance while code is
// generated, without storing the pushed values themselves — codegen never
// needs to inspect what it pushed, only that every push is eventually
// popped. Adapted from vm.Stack, the teacher's general-purpose value stack
// for its bytecode virtual machine; that VM has no place in a
// single-pass, direct-to-assembly compiler (see DESIGN.md), but the
// push/pop discipline it modeled is exactly what this package's stack
// machine needs to verify statically.
type Depth struct {
	n int
}

// Push records a str onto the hardware stack.
func (d *Depth) Push() {
	d.n++
}

// Pop records an ldr off the hardware stack.
func (d *Depth) Pop() {
	d.n--
}

// Net is the current push/pop imbalance. A correctly generated function
// body returns to Net() == 0 at every statement boundary: nothing is ever
// left on the stack between statements.
func (d *Depth) Net() int {
	return d.n
}
