package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/core/fee"
	"github.com/trezcool/educore/storage/scope"
)

var invoiceOrderFields = []string{"term", "amount_due", "amount_paid", "status", "due_date", "created_at", "updated_at"}

type invoiceRepository struct {
	exec scope.Executor
}

var _ fee.Repository = (*invoiceRepository)(nil) // interface compliance check

func NewInvoiceRepository(exec scope.Executor) fee.Repository {
	return &invoiceRepository{exec: exec}
}

func (repo invoiceRepository) toRecord(inv fee.Invoice) scope.Record {
	rec := scope.Record{
		"id":          inv.ID,
		"learner_id":  inv.LearnerID,
		"term":        inv.Term,
		"description": nullString(inv.Description),
		"amount_due":  inv.AmountDue,
		"amount_paid": inv.AmountPaid,
		"status":      inv.Status,
		"due_date":    nullDate(inv.DueDate),
		"created_at":  nullTime(inv.CreatedAt),
		"updated_at":  nullTime(inv.UpdatedAt),
	}
	if inv.SchoolID != "" {
		rec["school_id"] = inv.SchoolID
	}
	return rec
}

func (repo invoiceRepository) fromRecord(rec scope.Record) fee.Invoice {
	return fee.Invoice{
		ID:          toString(rec["id"]),
		SchoolID:    toString(rec["school_id"]),
		LearnerID:   toString(rec["learner_id"]),
		Term:        toString(rec["term"]),
		Description: toString(rec["description"]),
		AmountDue:   toInt64(rec["amount_due"]),
		AmountPaid:  toInt64(rec["amount_paid"]),
		Status:      toString(rec["status"]),
		DueDate:     toNullTime(rec["due_date"]),
		CreatedAt:   toTime(rec["created_at"]),
		UpdatedAt:   toTime(rec["updated_at"]),
	}
}

func (repo invoiceRepository) where(filter *fee.QueryFilter) scope.Record {
	where := make(scope.Record)
	if filter == nil {
		return where
	}
	if filter.LearnerID != "" {
		if isUUID(filter.LearnerID) {
			where["learner_id"] = filter.LearnerID
		} else {
			where["learner_id"] = scope.In() // matches nothing
		}
	}
	if filter.Term != "" {
		where["term"] = filter.Term
	}
	if len(filter.Statuses) > 0 {
		where["status"] = scope.StringsIn(filter.Statuses...)
	}
	if !filter.DueFrom.IsZero() || !filter.DueTo.IsZero() {
		where["due_date"] = scope.Range(nullTime(filter.DueFrom), nullTime(filter.DueTo))
	}
	return where
}

func (repo invoiceRepository) CreateInvoice(ctx context.Context, inv fee.Invoice) (fee.Invoice, error) {
	inv.ID = uuid.New().String()
	res, err := repo.exec.Execute(ctx, scope.Call{Entity: entityInvoices, Action: scope.Create, Data: repo.toRecord(inv)})
	if err != nil {
		return fee.Invoice{}, errors.Wrap(err, "inserting invoice")
	}
	rec, _ := res.First()
	return repo.fromRecord(rec), nil
}

func (repo invoiceRepository) QueryInvoices(ctx context.Context, filter *fee.QueryFilter, ordering []core.DBOrdering) ([]fee.Invoice, error) {
	res, err := repo.exec.Execute(ctx, scope.Call{
		Entity:  entityInvoices,
		Action:  scope.FindMany,
		Where:   repo.where(filter),
		OrderBy: orderBy(ordering, invoiceOrderFields, core.DBOrdering{Field: "created_at"}),
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying invoices")
	}
	invoices := make([]fee.Invoice, 0, len(res.Records))
	for _, rec := range res.Records {
		invoices = append(invoices, repo.fromRecord(rec))
	}
	return invoices, nil
}

func (repo invoiceRepository) GetInvoice(ctx context.Context, id string) (fee.Invoice, error) {
	if !isUUID(id) {
		return fee.Invoice{}, fee.ErrNotFound
	}
	res, err := repo.exec.Execute(ctx, scope.Call{Entity: entityInvoices, Action: scope.FindUnique, Where: scope.Record{"id": id}})
	if err != nil {
		return fee.Invoice{}, errors.Wrap(err, "finding invoice")
	}
	rec, found := res.First()
	if !found {
		return fee.Invoice{}, fee.ErrNotFound
	}
	return repo.fromRecord(rec), nil
}

// UpdateInvoice saves `inv` if its amount paid is still `paidBefore`, so that concurrent
// payments on the same invoice never overwrite each other.
func (repo invoiceRepository) UpdateInvoice(ctx context.Context, inv fee.Invoice, paidBefore int64) (fee.Invoice, error) {
	if !isUUID(inv.ID) {
		return fee.Invoice{}, fee.ErrNotFound
	}
	res, err := repo.exec.Execute(ctx, scope.Call{
		Entity: entityInvoices,
		Action: scope.Update,
		Where:  scope.Record{"id": inv.ID, "amount_paid": paidBefore},
		Data: scope.Record{
			"description": nullString(inv.Description),
			"amount_paid": inv.AmountPaid,
			"status":      inv.Status,
			"due_date":    nullDate(inv.DueDate),
			"updated_at":  nullTime(inv.UpdatedAt),
		},
	})
	if err != nil {
		return fee.Invoice{}, errors.Wrap(err, "updating invoice")
	}
	rec, found := res.First()
	if !found {
		if _, err = repo.GetInvoice(ctx, inv.ID); err != nil {
			return fee.Invoice{}, err
		}
		return fee.Invoice{}, fee.ErrConflict
	}
	return repo.fromRecord(rec), nil
}

func (repo invoiceRepository) Summarize(ctx context.Context, filter *fee.QueryFilter) (fee.Summary, error) {
	count := scope.AggregateField{Op: scope.AggCount, Field: "*"}
	due := scope.AggregateField{Op: scope.AggSum, Field: "amount_due"}
	paid := scope.AggregateField{Op: scope.AggSum, Field: "amount_paid"}

	res, err := repo.exec.Execute(ctx, scope.Call{
		Entity:     entityInvoices,
		Action:     scope.Aggregate,
		Where:      repo.where(filter),
		Aggregates: []scope.AggregateField{count, due, paid},
	})
	if err != nil {
		return fee.Summary{}, errors.Wrap(err, "summarizing invoices")
	}
	return fee.Summary{
		Invoices:  toInt64(res.Aggregates[count.Key()]),
		TotalDue:  toInt64(res.Aggregates[due.Key()]),
		TotalPaid: toInt64(res.Aggregates[paid.Key()]),
	}, nil
}
