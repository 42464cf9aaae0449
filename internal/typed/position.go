package typed

import "fmt"

// Position tracks the source location an AST node was built from, carried
// through the reducer so that a fatal error can point at the offending
// call or loop site. The reducer never reads source text itself; this is
// metadata handed down from the (out-of-scope) type checker.
type Position struct {
	Filename string
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Filename == "" && p.Line == 0 && p.Column == 0 {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}
