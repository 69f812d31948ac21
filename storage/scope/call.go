// Package scope describes data-access calls and enforces tenant isolation on them.
package scope

import (
	"context"

	"github.com/trezcool/educore/core"
)

type Action string

const (
	FindMany   Action = "findMany"
	FindFirst  Action = "findFirst"
	FindUnique Action = "findUnique"
	Count      Action = "count"
	Aggregate  Action = "aggregate"
	Create     Action = "create"
	CreateMany Action = "createMany"
	Update     Action = "update"
	UpdateMany Action = "updateMany"
	Delete     Action = "delete"
	DeleteMany Action = "deleteMany"
)

// IsRead reports whether the action only reads records.
func (a Action) IsRead() bool {
	switch a {
	case FindMany, FindFirst, FindUnique, Count, Aggregate:
		return true
	}
	return false
}

func (a Action) IsValid() bool {
	switch a {
	case FindMany, FindFirst, FindUnique, Count, Aggregate,
		Create, CreateMany, Update, UpdateMany, Delete, DeleteMany:
		return true
	}
	return false
}

// Record is a stored row keyed by column name.
type Record map[string]interface{}

// Has reports whether `key` is set, even to nil.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Clone returns a shallow copy of r (nil stays nil).
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

type AggregateOp string

const (
	AggCount AggregateOp = "count"
	AggSum   AggregateOp = "sum"
	AggAvg   AggregateOp = "avg"
	AggMin   AggregateOp = "min"
	AggMax   AggregateOp = "max"
)

type AggregateField struct {
	Op    AggregateOp
	Field string // "*" is allowed for AggCount
}

// Key is the name under which the aggregate is returned: `<op>_<field>`.
func (f AggregateField) Key() string {
	if f.Field == "*" {
		return string(f.Op)
	}
	return string(f.Op) + "_" + f.Field
}

// Call describes one data-access operation against an entity (table).
type Call struct {
	Entity string
	Action Action

	// Where filters the records affected by reads, updates & deletes.
	// See Cond for non-equality conditions and OrKey for alternatives.
	Where Record

	// Data is the payload of create, update & updateMany.
	Data Record

	// Batch is the payload of createMany.
	Batch []Record

	OrderBy    []core.DBOrdering
	Limit      int
	Offset     int
	Aggregates []AggregateField
}

type Result struct {
	Records    []Record
	Affected   int64 // number of records counted, created, updated or deleted
	Aggregates Record
}

// First returns the first record of the result, if any.
func (res Result) First() (Record, bool) {
	if len(res.Records) == 0 {
		return nil, false
	}
	return res.Records[0], true
}

// Executor runs calls against a storage.
type Executor interface {
	Execute(ctx context.Context, call Call) (Result, error)
}

// ExecutorFunc adapts a function to an Executor.
type ExecutorFunc func(ctx context.Context, call Call) (Result, error)

func (f ExecutorFunc) Execute(ctx context.Context, call Call) (Result, error) {
	return f(ctx, call)
}
