// Package inmemdb is an in-memory scope.Executor, used by tests and local runs without Postgres.
package inmemdb

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/educore/storage/scope"
)

var errUnknownAction = errors.New("unknown action")

type (
	DB struct {
		mu     sync.RWMutex
		tables map[string]*table
	}

	table struct {
		rows []scope.Record // insertion order
	}
)

var _ scope.Executor = (*DB)(nil) // interface compliance check

func Open() *DB {
	return &DB{tables: make(map[string]*table)}
}

// Reset drops every table.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.tables = make(map[string]*table)
}

// table returns the `name` table. Only writers, holding the write lock, may create it:
// readers of a missing table get an empty one that is not kept.
func (db *DB) table(name string, create bool) *table {
	t, ok := db.tables[name]
	if !ok {
		t = new(table)
		if create {
			db.tables[name] = t
		}
	}
	return t
}

func (db *DB) Execute(ctx context.Context, call scope.Call) (scope.Result, error) {
	if err := ctx.Err(); err != nil {
		return scope.Result{}, err
	}
	read := call.Action.IsRead()
	if read {
		db.mu.RLock()
		defer db.mu.RUnlock()
	} else {
		db.mu.Lock()
		defer db.mu.Unlock()
	}
	t := db.table(call.Entity, !read)

	switch call.Action {
	case scope.FindMany:
		return scope.Result{Records: t.find(call, 0)}, nil
	case scope.FindFirst, scope.FindUnique:
		return scope.Result{Records: t.find(call, 1)}, nil
	case scope.Count:
		rows := t.find(scope.Call{Where: call.Where}, 0)
		return scope.Result{Affected: int64(len(rows))}, nil
	case scope.Aggregate:
		rows := t.find(scope.Call{Where: call.Where}, 0)
		aggs, err := aggregate(rows, call.Aggregates)
		if err != nil {
			return scope.Result{}, err
		}
		return scope.Result{Aggregates: aggs, Affected: int64(len(rows))}, nil
	case scope.Create:
		rec := t.insert(call.Data)
		return scope.Result{Records: []scope.Record{rec}, Affected: 1}, nil
	case scope.CreateMany:
		recs := make([]scope.Record, 0, len(call.Batch))
		for _, data := range call.Batch {
			recs = append(recs, t.insert(data))
		}
		return scope.Result{Records: recs, Affected: int64(len(recs))}, nil
	case scope.Update, scope.UpdateMany:
		limit := 0
		if call.Action == scope.Update {
			limit = 1
		}
		recs := t.update(call.Where, call.Data, limit)
		return scope.Result{Records: recs, Affected: int64(len(recs))}, nil
	case scope.Delete, scope.DeleteMany:
		limit := 0
		if call.Action == scope.Delete {
			limit = 1
		}
		recs := t.delete(call.Where, limit)
		return scope.Result{Records: recs, Affected: int64(len(recs))}, nil
	}
	return scope.Result{}, errors.Wrap(errUnknownAction, string(call.Action))
}

// find returns copies of the matching rows, ordered & paginated. limit 0 means no limit.
func (t *table) find(call scope.Call, limit int) []scope.Record {
	matches := make([]scope.Record, 0)
	for _, row := range t.rows {
		if match(row, call.Where) {
			matches = append(matches, row)
		}
	}

	if len(call.OrderBy) > 0 {
		sort.SliceStable(matches, func(i, j int) bool {
			for _, ord := range call.OrderBy {
				c := compare(matches[i][ord.Field], matches[j][ord.Field])
				if c == 0 {
					continue
				}
				if ord.Ascending {
					return c < 0
				}
				return c > 0
			}
			return false
		})
	}

	if call.Offset > 0 {
		if call.Offset >= len(matches) {
			matches = matches[:0]
		} else {
			matches = matches[call.Offset:]
		}
	}
	if call.Limit > 0 && (limit == 0 || call.Limit < limit) {
		limit = call.Limit
	}
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]scope.Record, 0, len(matches))
	for _, row := range matches {
		out = append(out, row.Clone())
	}
	return out
}

func (t *table) insert(data scope.Record) scope.Record {
	row := data.Clone()
	if row == nil {
		row = make(scope.Record)
	}
	if id, ok := row["id"]; !ok || id == nil || id == "" {
		row["id"] = uuid.New().String()
	}
	t.rows = append(t.rows, row)
	return row.Clone()
}

func (t *table) update(where, data scope.Record, limit int) []scope.Record {
	updated := make([]scope.Record, 0)
	for _, row := range t.rows {
		if limit > 0 && len(updated) == limit {
			break
		}
		if !match(row, where) {
			continue
		}
		for k, v := range data {
			row[k] = v
		}
		updated = append(updated, row.Clone())
	}
	return updated
}

func (t *table) delete(where scope.Record, limit int) []scope.Record {
	deleted := make([]scope.Record, 0)
	kept := t.rows[:0]
	for _, row := range t.rows {
		if (limit == 0 || len(deleted) < limit) && match(row, where) {
			deleted = append(deleted, row)
			continue
		}
		kept = append(kept, row)
	}
	t.rows = kept
	return deleted
}
