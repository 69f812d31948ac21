package learner

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/educore/core"
)

const DateLayout = "2006-01-02"

// CBC grades
const (
	GradePP1 = "PP1"
	GradePP2 = "PP2"
	Grade1   = "GRADE_1"
	Grade2   = "GRADE_2"
	Grade3   = "GRADE_3"
	Grade4   = "GRADE_4"
	Grade5   = "GRADE_5"
	Grade6   = "GRADE_6"
	Grade7   = "GRADE_7"
	Grade8   = "GRADE_8"
	Grade9   = "GRADE_9"
)

// Statuses
const (
	StatusActive      = "ACTIVE"
	StatusTransferred = "TRANSFERRED"
	StatusGraduated   = "GRADUATED"
	StatusWithdrawn   = "WITHDRAWN"
)

const (
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
)

var (
	Grades   = []string{GradePP1, GradePP2, Grade1, Grade2, Grade3, Grade4, Grade5, Grade6, Grade7, Grade8, Grade9}
	Statuses = []string{StatusActive, StatusTransferred, StatusGraduated, StatusWithdrawn}
)

type Learner struct {
	ID              string    `json:"id"`
	SchoolID        string    `json:"school_id"`
	BranchID        string    `json:"branch_id,omitempty"`
	AdmissionNumber string    `json:"admission_number"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Gender          string    `json:"gender"`
	Grade           string    `json:"grade"`
	Status          string    `json:"status"`
	DateOfBirth     null.Time `json:"date_of_birth"`
	GuardianName    string    `json:"guardian_name"`
	GuardianPhone   string    `json:"guardian_phone"`
	CreatedAt       time.Time `json:"created_at"` // UTC
	UpdatedAt       time.Time `json:"updated_at"` // UTC
}

func (l Learner) FullName() string {
	return l.FirstName + " " + l.LastName
}

// NewLearner contains information needed to admit a new Learner.
type NewLearner struct {
	SchoolID        string `json:"school_id"`
	BranchID        string `json:"branch_id" validate:"omitempty,uuid"`
	AdmissionNumber string `json:"admission_number" validate:"required,max=50"`
	FirstName       string `json:"first_name" validate:"required,max=100"`
	LastName        string `json:"last_name" validate:"required,max=100"`
	Gender          string `json:"gender" validate:"required,oneof=MALE FEMALE"`
	Grade           string `json:"grade" validate:"required,grade"`
	DateOfBirth     string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	GuardianName    string `json:"guardian_name" validate:"max=255"`
	GuardianPhone   string `json:"guardian_phone" validate:"omitempty,max=32,phone"`
}

func (nl *NewLearner) Clean() {
	nl.AdmissionNumber = core.CleanString(nl.AdmissionNumber)
	nl.FirstName = core.CleanString(nl.FirstName)
	nl.LastName = core.CleanString(nl.LastName)
	nl.Gender = upper(nl.Gender)
	nl.Grade = upper(nl.Grade)
	nl.DateOfBirth = core.CleanString(nl.DateOfBirth)
	nl.GuardianName = core.CleanString(nl.GuardianName)
	nl.GuardianPhone = core.CleanString(nl.GuardianPhone)
}

func (nl *NewLearner) Validate(validate *validator.Validate) error {
	nl.Clean()
	return validate.Struct(nl)
}

// UpdateLearner defines what may be changed on an existing Learner. Empty fields are left as is.
type UpdateLearner struct {
	BranchID        *string `json:"branch_id" validate:"omitempty,uuid"`
	AdmissionNumber string  `json:"admission_number" validate:"max=50"`
	FirstName       string  `json:"first_name" validate:"max=100"`
	LastName        string  `json:"last_name" validate:"max=100"`
	Gender          string  `json:"gender" validate:"omitempty,oneof=MALE FEMALE"`
	Grade           string  `json:"grade" validate:"omitempty,grade"`
	Status          string  `json:"status" validate:"omitempty,oneof=ACTIVE TRANSFERRED GRADUATED WITHDRAWN"`
	DateOfBirth     string  `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	GuardianName    string  `json:"guardian_name" validate:"max=255"`
	GuardianPhone   string  `json:"guardian_phone" validate:"omitempty,max=32,phone"`
}

func (ul *UpdateLearner) Validate(validate *validator.Validate) error {
	ul.AdmissionNumber = core.CleanString(ul.AdmissionNumber)
	ul.FirstName = core.CleanString(ul.FirstName)
	ul.LastName = core.CleanString(ul.LastName)
	ul.Gender = upper(ul.Gender)
	ul.Grade = upper(ul.Grade)
	ul.Status = upper(ul.Status)
	ul.DateOfBirth = core.CleanString(ul.DateOfBirth)
	ul.GuardianName = core.CleanString(ul.GuardianName)
	ul.GuardianPhone = core.CleanString(ul.GuardianPhone)
	return validate.Struct(ul)
}

// apply returns l with the non-empty fields of ul.
func (ul UpdateLearner) apply(l Learner) Learner {
	if ul.BranchID != nil {
		l.BranchID = *ul.BranchID
	}
	if ul.AdmissionNumber != "" {
		l.AdmissionNumber = ul.AdmissionNumber
	}
	if ul.FirstName != "" {
		l.FirstName = ul.FirstName
	}
	if ul.LastName != "" {
		l.LastName = ul.LastName
	}
	if ul.Gender != "" {
		l.Gender = ul.Gender
	}
	if ul.Grade != "" {
		l.Grade = ul.Grade
	}
	if ul.Status != "" {
		l.Status = ul.Status
	}
	if ul.DateOfBirth != "" {
		l.DateOfBirth = parseDate(ul.DateOfBirth)
	}
	if ul.GuardianName != "" {
		l.GuardianName = ul.GuardianName
	}
	if ul.GuardianPhone != "" {
		l.GuardianPhone = ul.GuardianPhone
	}
	return l
}

type QueryFilter struct {
	Search   string   `query:"search"` // first name, last name or admission number
	Grades   []string `query:"grade"`
	Statuses []string `query:"status"`
	BranchID string   `query:"branch_id"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	for i := range qf.Grades {
		qf.Grades[i] = upper(qf.Grades[i])
	}
	for i := range qf.Statuses {
		qf.Statuses[i] = upper(qf.Statuses[i])
	}
}

func parseDate(s string) null.Time {
	if s == "" {
		return null.Time{}
	}
	t, err := time.Parse(DateLayout, s)
	return null.NewTime(t, err == nil)
}

func upper(s string) string {
	return strings.ToUpper(core.CleanString(s))
}
