package filter

import "slices"

// Filter is a predicate restricting matched documents.
// The set of implementations is closed: Term and And.
type Filter interface {
	isFilter()
}

// Term is an equality predicate on a single field.
type Term struct {
	field string
	value any
}

// NewTerm creates an equality predicate. value is a JSON scalar or a list of scalars.
func NewTerm(field string, value any) Term {
	return Term{field: field, value: value}
}

// Field returns the field name.
func (t Term) Field() string { return t.field }

// Value returns the value the field must equal.
func (t Term) Value() any { return t.value }

func (Term) isFilter() {}

// And is a conjunction over an ordered, flat list of filters.
// An And never holds another And as a direct child.
type And struct {
	children []Filter
}

// NewAnd creates a conjunction. Children that are themselves And are spliced
// in place, one level deep, so the result stays flat.
func NewAnd(children ...Filter) And {
	flat := make([]Filter, 0, len(children))
	for _, c := range children {
		switch v := deref(c).(type) {
		case nil:
			continue
		case And:
			flat = append(flat, v.children...)
		default:
			flat = append(flat, v)
		}
	}
	return And{children: flat}
}

// Children returns a copy of the conjunction's operands.
func (a And) Children() []Filter { return slices.Clone(a.children) }

// Len returns the number of operands.
func (a And) Len() int { return len(a.children) }

func (And) isFilter() {}

// Append composes added with current:
//   - no current filter: the single added filter, or And(added) for several;
//   - current is an And: its children followed by added, still flat;
//   - current is a Term: And(current, added...).
//
// Appending nothing returns current unchanged. Neither argument is modified.
func Append(current Filter, added ...Filter) Filter {
	if len(added) == 0 {
		return current
	}
	switch cur := deref(current).(type) {
	case nil:
		if len(added) == 1 {
			switch a := deref(added[0]).(type) {
			case nil:
				return nil
			case And:
				return NewAnd(a)
			default:
				return a
			}
		}
		return NewAnd(added...)
	case And:
		children := make([]Filter, 0, len(cur.children)+len(added))
		children = append(children, cur.children...)
		children = append(children, added...)
		return NewAnd(children...)
	default:
		children := make([]Filter, 0, 1+len(added))
		children = append(children, cur)
		children = append(children, added...)
		return NewAnd(children...)
	}
}

// deref turns *Term and *And into their values; a nil pointer becomes nil.
func deref(f Filter) Filter {
	switch v := f.(type) {
	case *Term:
		if v == nil {
			return nil
		}
		return *v
	case *And:
		if v == nil {
			return nil
		}
		return *v
	}
	return f
}

// Terms builds one Term per field/value pair, preserving the pair order.
func Terms(pairs ...Condition) []Filter {
	out := make([]Filter, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, NewTerm(p.Field, p.Value))
	}
	return out
}

// Condition is a single field/value pair used to build Terms.
type Condition struct {
	Field string
	Value any
}
