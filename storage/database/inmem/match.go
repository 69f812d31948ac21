package inmemdb

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/educore/storage/scope"
)

// match reports whether row satisfies every condition of where.
func match(row, where scope.Record) bool {
	for key, cond := range where {
		if scope.IsOrKey(key) {
			alts, ok := cond.([]scope.Record)
			if !ok || !matchAny(row, alts) {
				return false
			}
			continue
		}
		if !matchValue(row[key], cond) {
			return false
		}
	}
	return true
}

func matchAny(row scope.Record, alternatives []scope.Record) bool {
	for _, alt := range alternatives {
		if match(row, alt) {
			return true
		}
	}
	return len(alternatives) == 0
}

func matchValue(val, cond interface{}) bool {
	c, ok := cond.(scope.Cond)
	if !ok {
		return equal(val, cond)
	}

	switch c.Op {
	case scope.OpIn, scope.OpNotIn:
		var found bool
		for _, v := range toSlice(c.Value) {
			if equal(val, v) {
				found = true
				break
			}
		}
		return found == (c.Op == scope.OpIn)
	case scope.OpGte:
		return val != nil && compare(val, c.Value) >= 0
	case scope.OpLte:
		return val != nil && compare(val, c.Value) <= 0
	case scope.OpRange:
		b, ok := c.Value.(scope.Bounds)
		if !ok || val == nil {
			return false
		}
		return (b.From == nil || compare(val, b.From) >= 0) && (b.To == nil || compare(val, b.To) <= 0)
	case scope.OpContains:
		s, ok := val.(string)
		return ok && strings.Contains(strings.ToLower(s), strings.ToLower(fmt.Sprint(c.Value)))
	case scope.OpAnyPrefix:
		prefix := strings.ToLower(fmt.Sprint(c.Value))
		for _, s := range toStrings(val) {
			if strings.HasPrefix(strings.ToLower(s), prefix) {
				return true
			}
		}
		return false
	}
	return false
}

func equal(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if _, ok := toFloat(a); ok {
		if _, ok := toFloat(b); ok {
			return compare(a, b) == 0
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Equal(tb)
		}
	}
	return reflect.DeepEqual(a, b)
}

// compare orders two values of the same kind; nil sorts first.
func compare(a, b interface{}) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}

	switch va := a.(type) {
	case time.Time:
		if vb, ok := b.(time.Time); ok {
			switch {
			case va.Before(vb):
				return -1
			case va.After(vb):
				return 1
			}
			return 0
		}
	case bool:
		if vb, ok := b.(bool); ok {
			switch {
			case va == vb:
				return 0
			case !va:
				return -1
			}
			return 1
		}
	case string:
		if vb, ok := b.(string); ok {
			return strings.Compare(strings.ToLower(va), strings.ToLower(vb))
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toSlice(v interface{}) []interface{} {
	switch vals := v.(type) {
	case []interface{}:
		return vals
	case []string:
		out := make([]interface{}, 0, len(vals))
		for _, s := range vals {
			out = append(out, s)
		}
		return out
	}
	return []interface{}{v}
}

func toStrings(v interface{}) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case string:
		return []string{vals}
	}
	return nil
}

func aggregate(rows []scope.Record, fields []scope.AggregateField) (scope.Record, error) {
	aggs := make(scope.Record, len(fields))
	for _, f := range fields {
		switch f.Op {
		case scope.AggCount:
			var n int64
			for _, row := range rows {
				if f.Field == "*" || row[f.Field] != nil {
					n++
				}
			}
			aggs[f.Key()] = n
		case scope.AggSum, scope.AggAvg:
			var sum float64
			var n int
			for _, row := range rows {
				if v, ok := toFloat(row[f.Field]); ok {
					sum += v
					n++
				}
			}
			if f.Op == scope.AggSum {
				aggs[f.Key()] = sum
			} else if n > 0 {
				aggs[f.Key()] = sum / float64(n)
			} else {
				aggs[f.Key()] = nil
			}
		case scope.AggMin, scope.AggMax:
			var best interface{}
			for _, row := range rows {
				v := row[f.Field]
				if v == nil {
					continue
				}
				c := compare(v, best)
				if best == nil || (f.Op == scope.AggMin && c < 0) || (f.Op == scope.AggMax && c > 0) {
					best = v
				}
			}
			aggs[f.Key()] = best
		default:
			return nil, errors.Errorf("unsupported aggregate %q", f.Op)
		}
	}
	return aggs, nil
}
