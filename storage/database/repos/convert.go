// Package repos implements the domain repositories on top of a scope.Executor,
// so the same code runs against Postgres and the in-memory store.
package repos

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/storage/scope"
)

// Entities (tables)
const (
	entitySchools  = "schools"
	entityUsers    = "users"
	entityLearners = "learners"
	entityInvoices = "invoices"

	entityClasses     = "classes"
	entityAttendance  = "attendance_records"
	entityAssessments = "assessments"
)

// Records read from Postgres hold raw driver values ([]byte for uuid, numeric & array
// columns); the helpers below read both those and the in-memory store's Go values.

func toString(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	}
	return fmt.Sprint(v)
}

func toBytes(v interface{}) []byte {
	switch b := v.(type) {
	case []byte:
		return b
	case string:
		return []byte(b)
	}
	return nil
}

func toBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case []byte, string:
		ok, _ := strconv.ParseBool(toString(b))
		return ok
	}
	return false
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	case []byte, string:
		f, _ := strconv.ParseFloat(toString(n), 64)
		return int64(f)
	}
	return 0
}

func toTime(v interface{}) time.Time {
	if t, ok := v.(time.Time); ok {
		return t.UTC()
	}
	return time.Time{}
}

func toNullTime(v interface{}) null.Time {
	t := toTime(v)
	return null.NewTime(t, !t.IsZero())
}

func toStrings(v interface{}) []string {
	switch s := v.(type) {
	case []string:
		return append([]string{}, s...)
	case []byte, string:
		var arr pq.StringArray
		if err := arr.Scan(s); err == nil && arr != nil {
			return arr
		}
	}
	return []string{}
}

// nullString stores "" as NULL.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func nullDate(t null.Time) interface{} {
	if !t.Valid {
		return nil
	}
	return t.Time.UTC()
}

// idCond matches `id` if it may be a primary key, and nothing otherwise.
func idCond(id string) interface{} {
	if !isUUID(id) {
		return scope.In()
	}
	return id
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// validIDs drops the ids that cannot be primary keys.
func validIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id) {
			valid = append(valid, id)
		}
	}
	return valid
}

// orderBy keeps the orderings on allowed fields, or returns `fallback` if none is left.
func orderBy(ordering []core.DBOrdering, allowed []string, fallback ...core.DBOrdering) []core.DBOrdering {
	kept := make([]core.DBOrdering, 0, len(ordering))
	for _, ord := range ordering {
		if core.StringInSlice(ord.Field, allowed) {
			kept = append(kept, ord)
		}
	}
	if len(kept) == 0 {
		return fallback
	}
	return kept
}

// searchAny matches records where any of `cols` contains `term`.
func searchAny(term string, cols ...string) []scope.Record {
	alts := make([]scope.Record, 0, len(cols))
	for _, col := range cols {
		alts = append(alts, scope.Record{col: scope.Contains(term)})
	}
	return alts
}
