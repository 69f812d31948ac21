package sqlexec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"
	"github.com/volatiletech/strmangle"

	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/storage/scope"
)

var (
	errBadIdentifier = errors.New("invalid identifier")
	errBadCondition  = errors.New("invalid condition")

	likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
)

func quote(ident string) (string, error) {
	if !core.IsIdentifier(ident) {
		return "", errors.Wrap(errBadIdentifier, ident)
	}
	return strmangle.IdentQuote('"', '"', ident), nil
}

func sortedKeys(r scope.Record) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// whereMods turns a Where record into AND-ed query mods.
func whereMods(where scope.Record) ([]qm.QueryMod, error) {
	mods := make([]qm.QueryMod, 0, len(where))
	for _, key := range sortedKeys(where) {
		clause, args, err := buildClause(key, where[key])
		if err != nil {
			return nil, err
		}
		if clause == "" {
			continue
		}
		mods = append(mods, qm.Where(clause, args...))
	}
	return mods, nil
}

// buildWhere renders a Where record as a single `?`-placeholder clause.
func buildWhere(where scope.Record) (string, []interface{}, error) {
	clauses := make([]string, 0, len(where))
	args := make([]interface{}, 0, len(where))
	for _, key := range sortedKeys(where) {
		clause, cargs, err := buildClause(key, where[key])
		if err != nil {
			return "", nil, err
		}
		if clause == "" {
			continue
		}
		clauses = append(clauses, clause)
		args = append(args, cargs...)
	}
	if len(clauses) == 0 {
		return "TRUE", nil, nil
	}
	return strings.Join(clauses, " AND "), args, nil
}

func buildClause(key string, val interface{}) (string, []interface{}, error) {
	if scope.IsOrKey(key) {
		alts, ok := val.([]scope.Record)
		if !ok {
			return "", nil, errors.Wrapf(errBadCondition, "%s expects []scope.Record", key)
		}
		if len(alts) == 0 {
			return "", nil, nil
		}
		clauses := make([]string, 0, len(alts))
		var args []interface{}
		for _, alt := range alts {
			clause, altArgs, err := buildWhere(alt)
			if err != nil {
				return "", nil, err
			}
			clauses = append(clauses, "("+clause+")")
			args = append(args, altArgs...)
		}
		return "(" + strings.Join(clauses, " OR ") + ")", args, nil
	}

	col, err := quote(key)
	if err != nil {
		return "", nil, err
	}

	cond, ok := val.(scope.Cond)
	if !ok {
		if val == nil {
			return col + " IS NULL", nil, nil
		}
		return col + " = ?", []interface{}{value(val)}, nil
	}

	switch cond.Op {
	case scope.OpIn, scope.OpNotIn:
		vals, ok := cond.Value.([]interface{})
		if !ok {
			return "", nil, errors.Wrapf(errBadCondition, "%s on %s", cond.Op, key)
		}
		if len(vals) == 0 {
			if cond.Op == scope.OpIn {
				return "FALSE", nil, nil
			}
			return "TRUE", nil, nil
		}
		op := "IN"
		if cond.Op == scope.OpNotIn {
			op = "NOT IN"
		}
		args := make([]interface{}, 0, len(vals))
		for _, v := range vals {
			args = append(args, value(v))
		}
		return fmt.Sprintf("%s %s (%s)", col, op, strmangle.Placeholders(false, len(vals), 1, 1)), args, nil
	case scope.OpGte:
		return col + " >= ?", []interface{}{value(cond.Value)}, nil
	case scope.OpLte:
		return col + " <= ?", []interface{}{value(cond.Value)}, nil
	case scope.OpRange:
		b, ok := cond.Value.(scope.Bounds)
		if !ok {
			return "", nil, errors.Wrapf(errBadCondition, "%s on %s", cond.Op, key)
		}
		var clauses []string
		var args []interface{}
		if b.From != nil {
			clauses = append(clauses, col+" >= ?")
			args = append(args, value(b.From))
		}
		if b.To != nil {
			clauses = append(clauses, col+" <= ?")
			args = append(args, value(b.To))
		}
		if len(clauses) == 0 {
			return col + " IS NOT NULL", nil, nil
		}
		return strings.Join(clauses, " AND "), args, nil
	case scope.OpContains:
		return col + " ILIKE ?", []interface{}{"%" + likeEscaper.Replace(fmt.Sprint(cond.Value)) + "%"}, nil
	case scope.OpAnyPrefix:
		clause := fmt.Sprintf("EXISTS (SELECT 1 FROM UNNEST(%s) AS elem WHERE elem ILIKE ?)", col)
		return clause, []interface{}{likeEscaper.Replace(fmt.Sprint(cond.Value)) + "%"}, nil
	}
	return "", nil, errors.Wrapf(errBadCondition, "unknown operator %q on %s", cond.Op, key)
}

// value adapts Go values to what lib/pq can bind.
func value(v interface{}) interface{} {
	if s, ok := v.([]string); ok {
		return pq.StringArray(s)
	}
	return v
}
