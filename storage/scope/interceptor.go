package scope

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/educore/core/tenant"
)

// SchoolKey is the isolation column carried by every tenant-scoped entity.
const SchoolKey = "school_id"

// TenantEntities is the fixed allow-list of tenant-scoped entities.
var TenantEntities = []string{
	"users",
	"learners",
	"classes",
	"attendance_records",
	"assessments",
	"invoices",
}

var (
	ErrNoTenant    = errors.New("no tenant for a tenant-scoped entity")
	ErrCrossTenant = errors.New("school_id does not match the current tenant")
)

// Outcome tells what the interceptor did with a call.
type Outcome string

const (
	OutcomeScoped      Outcome = "scoped"      // school_id injected (or already present)
	OutcomeBypassed    Outcome = "bypassed"    // super-admin
	OutcomeUnscoped    Outcome = "unscoped"    // scoped entity but no tenant school
	OutcomePassthrough Outcome = "passthrough" // entity not in the allow-list
	OutcomeRejected    Outcome = "rejected"
)

// Observer is notified of every intercepted call.
type Observer interface {
	ObserveCall(entity string, action Action, outcome Outcome)
}

type Options struct {
	// Entities overrides TenantEntities.
	Entities []string

	// Strict rejects calls on scoped entities with ErrNoTenant when no school is resolvable,
	// instead of letting them through unscoped.
	Strict bool

	// RejectMismatch rejects calls with ErrCrossTenant when they name a school_id
	// other than the current tenant's, instead of honouring it.
	RejectMismatch bool

	Observer Observer
}

// Interceptor is an Executor that scopes calls on tenant entities to the current school
// before handing them to the next Executor.
type Interceptor struct {
	next     Executor
	entities map[string]struct{}
	opts     Options
}

var _ Executor = (*Interceptor)(nil) // interface compliance check

func NewInterceptor(next Executor, opts Options) *Interceptor {
	entities := opts.Entities
	if entities == nil {
		entities = TenantEntities
	}
	set := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		set[e] = struct{}{}
	}
	return &Interceptor{next: next, entities: set, opts: opts}
}

// IsScoped reports whether `entity` is tenant-scoped.
func (i *Interceptor) IsScoped(entity string) bool {
	_, ok := i.entities[entity]
	return ok
}

func (i *Interceptor) Execute(ctx context.Context, call Call) (Result, error) {
	call, err := i.Rewrite(ctx, call)
	if err != nil {
		return Result{}, err
	}
	return i.next.Execute(ctx, call)
}

// Rewrite returns `call` scoped to the tenant of `ctx`. The caller's maps are never mutated.
func (i *Interceptor) Rewrite(ctx context.Context, call Call) (Call, error) {
	call, outcome, err := i.rewrite(ctx, call)
	if i.opts.Observer != nil {
		i.opts.Observer.ObserveCall(call.Entity, call.Action, outcome)
	}
	return call, err
}

func (i *Interceptor) rewrite(ctx context.Context, call Call) (Call, Outcome, error) {
	if !i.IsScoped(call.Entity) {
		return call, OutcomePassthrough, nil
	}

	tc, ok := tenant.Current(ctx)
	if ok && tc.IsSuperAdmin {
		return call, OutcomeBypassed, nil
	}
	if !ok || !tc.HasSchool() {
		if i.opts.Strict {
			return call, OutcomeRejected, errors.Wrapf(ErrNoTenant, "%s %s", call.Action, call.Entity)
		}
		return call, OutcomeUnscoped, nil
	}

	var mismatch bool
	switch {
	case call.Action == Create:
		call.Data, mismatch = inject(call.Data, tc.SchoolID)
	case call.Action == CreateMany:
		batch := make([]Record, 0, len(call.Batch))
		for _, rec := range call.Batch {
			rec, m := inject(rec, tc.SchoolID)
			mismatch = mismatch || m
			batch = append(batch, rec)
		}
		call.Batch = batch
	case call.Action.IsRead(), call.Action == Update, call.Action == UpdateMany,
		call.Action == Delete, call.Action == DeleteMany:
		call.Where, mismatch = inject(call.Where, tc.SchoolID)
	default:
		return call, OutcomePassthrough, nil
	}

	if mismatch && i.opts.RejectMismatch {
		return call, OutcomeRejected, errors.Wrapf(ErrCrossTenant, "%s %s", call.Action, call.Entity)
	}
	return call, OutcomeScoped, nil
}

// inject returns `rec` with school_id set to `schoolID` unless it already names one,
// and whether the named one differs from `schoolID`.
func inject(rec Record, schoolID string) (Record, bool) {
	if v, ok := rec[SchoolKey]; ok {
		return rec, !sameSchool(v, schoolID)
	}
	scoped := make(Record, len(rec)+1)
	for k, v := range rec {
		scoped[k] = v
	}
	scoped[SchoolKey] = schoolID
	return scoped, false
}

func sameSchool(v interface{}, schoolID string) bool {
	switch val := v.(type) {
	case string:
		return val == schoolID
	case []byte:
		return string(val) == schoolID
	case nil:
		return false
	default:
		return fmt.Sprint(val) == schoolID
	}
}
