// Package fee bills learners and tracks their payments.
package fee

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/core/learner"
)

var (
	// errors
	ErrNotFound       = errors.New("invoice not found")
	ErrUnknownLearner = errors.New("learner not found")
	ErrOverpayment    = errors.New("payment exceeds the invoice balance")
	ErrAlreadySettled = errors.New("invoice is already paid")
	ErrConflict       = errors.New("invoice was changed concurrently, try again")
)

// paymentAttempts bounds how many times a payment is re-applied on a fresh read of its
// invoice after a concurrent change.
const paymentAttempts = 3

type (
	Repository interface {
		CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error)
		QueryInvoices(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Invoice, error)
		GetInvoice(ctx context.Context, id string) (Invoice, error)
		// UpdateInvoice saves inv only if its stored amount paid is still paidBefore,
		// and returns ErrConflict otherwise.
		UpdateInvoice(ctx context.Context, inv Invoice, paidBefore int64) (Invoice, error)
		Summarize(ctx context.Context, filter *QueryFilter) (Summary, error)
	}

	// LearnerGetter finds the learners invoices are issued to.
	LearnerGetter interface {
		GetByID(ctx context.Context, id string) (learner.Learner, error)
	}

	Service struct {
		repo     Repository
		learners LearnerGetter
	}
)

func NewService(repo Repository, learners LearnerGetter) *Service {
	return &Service{repo: repo, learners: learners}
}

// Create issues an invoice to a learner of the current school. The invoice belongs to
// the learner's school.
func (svc *Service) Create(ctx context.Context, ni NewInvoice) (Invoice, error) {
	lrn, err := svc.learners.GetByID(ctx, ni.LearnerID)
	if err != nil {
		if errors.Cause(err) == learner.ErrNotFound {
			return Invoice{}, core.NewValidationError(ErrUnknownLearner, core.FieldError{Field: "learner_id", Error: ErrUnknownLearner.Error()})
		}
		return Invoice{}, errors.Wrap(err, "finding learner")
	}

	now := time.Now().UTC()
	inv := Invoice{
		SchoolID:    lrn.SchoolID,
		LearnerID:   lrn.ID,
		Term:        ni.Term,
		Description: ni.Description,
		AmountDue:   ni.AmountDue,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if ni.DueDate != "" {
		if due, err := time.Parse(learner.DateLayout, ni.DueDate); err == nil {
			inv.DueDate = null.TimeFrom(due)
		}
	}
	return svc.repo.CreateInvoice(ctx, inv)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Invoice, error) {
	return svc.repo.QueryInvoices(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Invoice, error) {
	return svc.repo.GetInvoice(ctx, id)
}

// RecordPayment adds `amount` to what was paid on the invoice, never beyond what is due.
// `inv` may be stale: the balance is checked again on a fresh read whenever the invoice
// changed since it was loaded.
func (svc *Service) RecordPayment(ctx context.Context, inv Invoice, np NewPayment) (Invoice, error) {
	for attempt := 1; ; attempt++ {
		if inv.Status == StatusPaid {
			return Invoice{}, core.NewValidationError(ErrAlreadySettled, core.FieldError{Field: "amount", Error: ErrAlreadySettled.Error()})
		}
		if np.Amount > inv.Balance() {
			return Invoice{}, core.NewValidationError(ErrOverpayment, core.FieldError{Field: "amount", Error: ErrOverpayment.Error()})
		}

		paid := inv
		paid.AmountPaid += np.Amount
		paid.Status = statusFor(paid.AmountDue, paid.AmountPaid)
		paid.UpdatedAt = time.Now().UTC()

		saved, err := svc.repo.UpdateInvoice(ctx, paid, inv.AmountPaid)
		if errors.Cause(err) != ErrConflict || attempt == paymentAttempts {
			return saved, err
		}
		if inv, err = svc.repo.GetInvoice(ctx, inv.ID); err != nil {
			return Invoice{}, err
		}
	}
}

func (svc *Service) Summarize(ctx context.Context, filter *QueryFilter) (Summary, error) {
	sum, err := svc.repo.Summarize(ctx, filter)
	if err != nil {
		return Summary{}, err
	}
	sum.Outstanding = sum.TotalDue - sum.TotalPaid
	return sum, nil
}
