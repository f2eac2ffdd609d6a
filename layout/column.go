// Package layout is the rectangular cell grid a witness is written into.
package layout

import "fmt"

type ColumnKind uint8

const (
	Advice ColumnKind = iota
	Fixed
	Instance

	numKinds
)

func (k ColumnKind) String() string {
	switch k {
	case Advice:
		return "advice"
	case Fixed:
		return "fixed"
	case Instance:
		return "instance"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Column addresses one column of the grid. Index is per kind.
type Column struct {
	Kind  ColumnKind
	Index int
	Name  string
}

func (c Column) String() string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("%s[%d]", c.Kind, c.Index)
}

// Shape is the number of columns of each kind.
type Shape struct {
	Advice   int
	Fixed    int
	Instance int
}

func (s Shape) count(k ColumnKind) int {
	switch k {
	case Advice:
		return s.Advice
	case Fixed:
		return s.Fixed
	case Instance:
		return s.Instance
	}
	return 0
}
