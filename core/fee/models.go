package fee

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/educore/core"
)

// Invoice statuses, derived from the amount paid.
const (
	StatusPending = "PENDING"
	StatusPartial = "PARTIAL"
	StatusPaid    = "PAID"
)

var Statuses = []string{StatusPending, StatusPartial, StatusPaid}

// Invoice bills a learner for a term. Amounts are in minor units (cents).
type Invoice struct {
	ID          string    `json:"id"`
	SchoolID    string    `json:"school_id"`
	LearnerID   string    `json:"learner_id"`
	Term        string    `json:"term"`
	Description string    `json:"description"`
	AmountDue   int64     `json:"amount_due"`
	AmountPaid  int64     `json:"amount_paid"`
	Status      string    `json:"status"`
	DueDate     null.Time `json:"due_date"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (inv Invoice) Balance() int64 {
	return inv.AmountDue - inv.AmountPaid
}

func statusFor(due, paid int64) string {
	switch {
	case paid <= 0:
		return StatusPending
	case paid < due:
		return StatusPartial
	}
	return StatusPaid
}

type NewInvoice struct {
	LearnerID   string `json:"learner_id" validate:"required,uuid"`
	Term        string `json:"term" validate:"required,max=16"`
	Description string `json:"description" validate:"max=255"`
	AmountDue   int64  `json:"amount_due" validate:"required,gt=0"`
	DueDate     string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

func (ni *NewInvoice) Validate(validate *validator.Validate) error {
	ni.LearnerID = core.CleanString(ni.LearnerID, true /* lower */)
	ni.Term = core.CleanString(ni.Term)
	ni.Description = core.CleanString(ni.Description)
	ni.DueDate = core.CleanString(ni.DueDate)
	return validate.Struct(ni)
}

type NewPayment struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

func (np NewPayment) Validate(validate *validator.Validate) error { return validate.Struct(np) }

type QueryFilter struct {
	LearnerID string    `query:"learner_id"`
	Term      string    `query:"term"`
	Statuses  []string  `query:"status"`
	DueFrom   time.Time `query:"-"` // due_from
	DueTo     time.Time `query:"-"` // due_to
}

func (qf *QueryFilter) Clean() {
	qf.LearnerID = core.CleanString(qf.LearnerID, true /* lower */)
	qf.Term = core.CleanString(qf.Term)
}

// Summary aggregates the invoices matching a filter.
type Summary struct {
	Invoices    int64 `json:"invoices"`
	TotalDue    int64 `json:"total_due"`
	TotalPaid   int64 `json:"total_paid"`
	Outstanding int64 `json:"outstanding"`
}
