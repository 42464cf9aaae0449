package typed

import "fmt"

// Identifier is a pair (name, version): the name is a program-source
// symbol, the version a non-negative integer assigned by SSA. A name with
// no explicit version is understood to be version 0.
type Identifier struct {
	Name    string
	Version int
}

// NewIdentifier returns the unversioned (version 0) identifier named name.
func NewIdentifier(name string) Identifier {
	return Identifier{Name: name, Version: 0}
}

// WithVersion returns a copy of id bound to version v.
func (id Identifier) WithVersion(v int) Identifier {
	return Identifier{Name: id.Name, Version: v}
}

func (id Identifier) String() string {
	if id.Version == 0 {
		return id.Name
	}
	return fmt.Sprintf("%s_%d", id.Name, id.Version)
}
