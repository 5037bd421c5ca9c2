// Package term defines the values the engine reasons about: constants,
// variables, and predicates built from them.
//
// A literal is a variable iff it starts with VariableMarker:
//
//	term.Parse("?x")   // Variable
//	term.Parse("bert") // Constant
package term

import "strings"

// VariableMarker prefixes every variable literal.
const VariableMarker = "?"

// Kind tags which variant a Term holds.
type Kind uint8

const (
	KindConstant Kind = iota
	KindVariable
)

func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "constant"
	case KindVariable:
		return "variable"
	default:
		return "unknown"
	}
}

// Constant is an atomic ground value.
type Constant struct {
	Element string
}

// Variable is a named placeholder. Variables are not scoped to a rule
// instance: "?x" in two rules is the same name.
type Variable struct {
	Element string
}

// Term wraps exactly one Constant or Variable.
type Term struct {
	Kind    Kind
	Element string
}

// NewConstant builds a constant term.
func NewConstant(element string) Constant { return Constant{Element: element} }

// NewVariable builds a variable term.
func NewVariable(element string) Variable { return Variable{Element: element} }

// Term wraps c.
func (c Constant) Term() Term { return Term{Kind: KindConstant, Element: c.Element} }

// Term wraps v.
func (v Variable) Term() Term { return Term{Kind: KindVariable, Element: v.Element} }

func (c Constant) String() string { return c.Element }
func (v Variable) String() string { return v.Element }

// IsVariable reports whether literal denotes a variable.
func IsVariable(literal string) bool {
	return strings.HasPrefix(literal, VariableMarker)
}

// Parse classifies literal by the variable marker.
func Parse(literal string) Term {
	if IsVariable(literal) {
		return NewVariable(literal).Term()
	}
	return NewConstant(literal).Term()
}

// IsVariable reports whether t holds a Variable.
func (t Term) IsVariable() bool { return t.Kind == KindVariable }

// Equal compares elements only; the variant tag is not part of equality.
func (t Term) Equal(other Term) bool { return t.Element == other.Element }

// EqualConstant reports whether t holds the same element as c.
func (t Term) EqualConstant(c Constant) bool { return t.Element == c.Element }

// EqualVariable reports whether t holds the same element as v.
func (t Term) EqualVariable(v Variable) bool { return t.Element == v.Element }

func (t Term) String() string { return t.Element }
