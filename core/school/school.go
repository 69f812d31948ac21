// Package school manages the schools (tenants) of the platform.
package school

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/educore/core"
)

var (
	// errors
	ErrNotFound   = errors.New("school not found")
	ErrCodeExists = errors.New("a school with this code already exists")

	codeRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{1,63}$`)
)

type School struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type NewSchool struct {
	Name string `json:"name" validate:"required,max=255"`
	Code string `json:"code" validate:"required,max=64"`
}

func (ns *NewSchool) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Code = strings.ToUpper(core.CleanString(ns.Code))
	if err := validate.Struct(ns); err != nil {
		return err
	}
	if !codeRegex.MatchString(ns.Code) {
		return core.NewFieldValidationError("code", "only letters, digits and dashes are allowed")
	}
	return nil
}

type (
	Repository interface {
		CodeExists(ctx context.Context, code string) (bool, error)
		CreateSchool(ctx context.Context, s School) (School, error)
		QuerySchools(ctx context.Context, ordering []core.DBOrdering) ([]School, error)
		GetSchool(ctx context.Context, id string) (School, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ns NewSchool) (School, error) {
	exists, err := svc.repo.CodeExists(ctx, ns.Code)
	if err != nil {
		return School{}, errors.Wrap(err, "checking school code")
	}
	if exists {
		return School{}, core.NewValidationError(ErrCodeExists, core.FieldError{Field: "code", Error: ErrCodeExists.Error()})
	}
	return svc.repo.CreateSchool(ctx, School{
		Name:      ns.Name,
		Code:      ns.Code,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) Query(ctx context.Context, ordering []core.DBOrdering) ([]School, error) {
	return svc.repo.QuerySchools(ctx, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (School, error) {
	return svc.repo.GetSchool(ctx, id)
}
