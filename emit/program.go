package emit

// Program is a finalized, linked instruction stream. It is immutable and
// safe for concurrent use.
type Program struct {
	run    func(recv any, args []any) any
	Name   string
	Module string
	Code   []byte
	Tokens []any
	Locals int
}

// Call runs the program with the given receiver and argument slice.
func (p *Program) Call(recv any, args []any) any {
	return p.run(recv, args)
}

// Func returns the linked entry point.
func (p *Program) Func() func(recv any, args []any) any {
	return p.run
}
