package main

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/core/school"
	"github.com/trezcool/educore/core/tenant"
	"github.com/trezcool/educore/core/user"
)

var errSchoolChange = errors.New("user belongs to another school")

func (cli *commandLine) addSchool(name, code string) (school.School, error) {
	ns := school.NewSchool{Name: name, Code: code}
	if err := ns.Validate(validator.New()); err != nil {
		return school.School{}, err
	}
	return cli.schSvc.Create(tenant.AsSystem(context.Background()), ns)
}

// addUser updates or creates a user.User: the owner of schoolID, or a super admin without one.
func (cli *commandLine) addUser(name, uname, email, pwd, schoolID string) error {
	ctx := tenant.AsSystem(context.Background())
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)
	schoolID = core.CleanString(schoolID, true /* lower */)

	roles := []string{user.RoleSuperAdmin}
	if schoolID != "" {
		if _, err := cli.schSvc.GetByID(ctx, schoolID); err != nil {
			return errors.Wrap(err, "finding school")
		}
		roles = []string{user.RoleAdminOwner}
	}

	now := time.Now().UTC()
	usr, err := cli.findUser(ctx, uname, email)
	isNew := errors.Cause(err) == user.ErrNotFound
	if err != nil && !isNew {
		return err
	}
	if isNew {
		usr = user.User{SchoolID: schoolID, Username: uname, Email: email, CreatedAt: now}
	} else if usr.SchoolID != schoolID {
		return errSchoolChange
	}
	if name = core.CleanString(name); name != "" {
		usr.Name = name
	} else if usr.Name == "" {
		usr.Name = usr.Username
	}
	usr.Roles = roles
	usr.IsActive = true
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if isNew {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return err
}

func (cli *commandLine) findUser(ctx context.Context, uname, email string) (user.User, error) {
	for _, key := range []string{uname, email} {
		if key == "" {
			continue
		}
		usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: key})
		if errors.Cause(err) != user.ErrNotFound {
			return usr, err
		}
	}
	return user.User{}, user.ErrNotFound
}
