package scope

import "strings"

// OrKey holds a []Record in a Where clause; a record matches if it matches any of them.
// Several groups of alternatives are AND-ed by suffixing the key, e.g. "OR_search" & "OR_roles".
const OrKey = "OR"

// IsOrKey reports whether a Where key holds alternatives rather than a column condition.
func IsOrKey(key string) bool {
	return strings.HasPrefix(key, OrKey)
}

type Operator string

const (
	OpIn        Operator = "in"
	OpNotIn     Operator = "notIn"
	OpGte       Operator = "gte"
	OpLte       Operator = "lte"
	OpRange     Operator = "range"     // Value is a Bounds
	OpContains  Operator = "contains"  // case-insensitive substring
	OpAnyPrefix Operator = "anyPrefix" // any element of a string array starts with Value (case-insensitive)
)

// Bounds are the inclusive ends of a Range; nil ends are open.
type Bounds struct {
	From interface{}
	To   interface{}
}

// Cond is a non-equality condition on a column.
type Cond struct {
	Op    Operator
	Value interface{}
}

func In(values ...interface{}) Cond    { return Cond{Op: OpIn, Value: values} }
func NotIn(values ...interface{}) Cond { return Cond{Op: OpNotIn, Value: values} }
func Gte(value interface{}) Cond       { return Cond{Op: OpGte, Value: value} }
func Lte(value interface{}) Cond       { return Cond{Op: OpLte, Value: value} }

// Range matches values within [from, to]; a nil bound is open.
func Range(from, to interface{}) Cond { return Cond{Op: OpRange, Value: Bounds{From: from, To: to}} }

func Contains(substr string) Cond        { return Cond{Op: OpContains, Value: substr} }
func AnyPrefix(prefix string) Cond       { return Cond{Op: OpAnyPrefix, Value: prefix} }
func Or(alternatives ...Record) []Record { return alternatives }

// StringsIn is In for a list of strings.
func StringsIn(values ...string) Cond {
	vals := make([]interface{}, 0, len(values))
	for _, v := range values {
		vals = append(vals, v)
	}
	return In(vals...)
}

// StringsNotIn is NotIn for a list of strings.
func StringsNotIn(values ...string) Cond {
	vals := make([]interface{}, 0, len(values))
	for _, v := range values {
		vals = append(vals, v)
	}
	return NotIn(vals...)
}
