// Package testutil holds the fixtures shared by the API and CLI tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/educore/core/learner"
	"github.com/trezcool/educore/core/school"
	"github.com/trezcool/educore/core/tenant"
	"github.com/trezcool/educore/core/user"
)

// CreateUser stores a user of schoolID (none for platform users), bypassing the tenant scope.
func CreateUser(
	t *testing.T,
	repo user.Repository,
	schoolID, name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if roles == nil {
		roles = []string{}
	}
	usr := user.User{
		SchoolID:  schoolID,
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(tenant.AsSystem(context.Background()), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateSchool(t *testing.T, repo school.Repository, name, code string) school.School {
	t.Helper()
	sch, err := repo.CreateSchool(tenant.AsSystem(context.Background()), school.School{
		Name:      name,
		Code:      code,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSchool() failed: %v", err)
	}
	return sch
}

func CreateLearner(t *testing.T, repo learner.Repository, schoolID, admNo, firstName, lastName, grade string) learner.Learner {
	t.Helper()
	now := time.Now().UTC()
	learners, err := repo.CreateLearners(tenant.AsSystem(context.Background()), learner.Learner{
		SchoolID:        schoolID,
		AdmissionNumber: admNo,
		FirstName:       firstName,
		LastName:        lastName,
		Gender:          learner.GenderFemale,
		Grade:           grade,
		Status:          learner.StatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("CreateLearner() failed: %v", err)
	}
	return learners[0]
}
