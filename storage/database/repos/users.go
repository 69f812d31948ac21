package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/core/user"
	"github.com/trezcool/educore/storage/scope"
)

var userOrderFields = []string{"name", "username", "email", "is_active", "created_at", "updated_at", "last_login"}

type userRepository struct {
	exec scope.Executor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec scope.Executor) user.Repository {
	return &userRepository{exec: exec}
}

// toRecord leaves out an empty school_id, for the tenant's school to be filled in.
func (repo userRepository) toRecord(usr user.User) scope.Record {
	rec := scope.Record{
		"id":            usr.ID,
		"branch_id":     nullString(usr.BranchID),
		"name":          nullString(usr.Name),
		"username":      nullString(usr.Username),
		"email":         nullString(usr.Email),
		"is_active":     usr.IsActive,
		"roles":         append([]string{}, usr.Roles...),
		"password_hash": usr.PasswordHash,
		"created_at":    nullTime(usr.CreatedAt),
		"updated_at":    nullTime(usr.UpdatedAt),
		"last_login":    nullTime(usr.LastLogin),
	}
	if usr.SchoolID != "" {
		rec["school_id"] = usr.SchoolID
	}
	return rec
}

func (repo userRepository) fromRecord(rec scope.Record) user.User {
	return user.User{
		ID:           toString(rec["id"]),
		SchoolID:     toString(rec["school_id"]),
		BranchID:     toString(rec["branch_id"]),
		Name:         toString(rec["name"]),
		Username:     toString(rec["username"]),
		Email:        toString(rec["email"]),
		IsActive:     toBool(rec["is_active"]),
		Roles:        toStrings(rec["roles"]),
		PasswordHash: toBytes(rec["password_hash"]),
		CreatedAt:    toTime(rec["created_at"]),
		UpdatedAt:    toTime(rec["updated_at"]),
		LastLogin:    toTime(rec["last_login"]),
	}
}

func (repo userRepository) fromRecords(recs []scope.Record) []user.User {
	users := make([]user.User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, repo.fromRecord(rec))
	}
	return users
}

func (repo userRepository) CheckUniqueness(ctx context.Context, username, email string, excludedIDs ...string) error {
	alts := make([]scope.Record, 0, 2)
	if username != "" {
		alts = append(alts, scope.Record{"username": username})
	}
	if email != "" {
		alts = append(alts, scope.Record{"email": email})
	}
	if len(alts) == 0 {
		return nil
	}

	where := scope.Record{scope.OrKey: alts}
	if ids := validIDs(excludedIDs); len(ids) > 0 {
		where["id"] = scope.StringsNotIn(ids...)
	}
	res, err := repo.exec.Execute(ctx, scope.Call{Entity: entityUsers, Action: scope.FindFirst, Where: where})
	if err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	rec, found := res.First()
	if !found {
		return nil
	}
	if username != "" && toString(rec["username"]) == username {
		return user.ErrUsernameExists
	}
	return user.ErrEmailExists
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	res, err := repo.exec.Execute(ctx, scope.Call{Entity: entityUsers, Action: scope.Create, Data: repo.toRecord(usr)})
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	rec, _ := res.First()
	return repo.fromRecord(rec), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	where := make(scope.Record)

	if filter != nil {
		// users with Name, Username or Email matching the search keyword
		if filter.Search != "" {
			where[scope.OrKey+"_search"] = searchAny(filter.Search, "name", "username", "email")
		}
		// users with any role that starts with any of the provided roles
		if len(filter.Roles) > 0 {
			alts := make([]scope.Record, 0, len(filter.Roles))
			for _, role := range filter.Roles {
				alts = append(alts, scope.Record{"roles": scope.AnyPrefix(role)})
			}
			where[scope.OrKey+"_roles"] = alts
		}
		if filter.IsActive != nil {
			where["is_active"] = *filter.IsActive
		}
		if !filter.CreatedFrom.IsZero() || !filter.CreatedTo.IsZero() {
			where["created_at"] = scope.Range(nullTime(filter.CreatedFrom), nullTime(filter.CreatedTo))
		}
	}

	res, err := repo.exec.Execute(ctx, scope.Call{
		Entity:  entityUsers,
		Action:  scope.FindMany,
		Where:   where,
		OrderBy: orderBy(ordering, userOrderFields, core.DBOrdering{Field: "created_at"}),
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return repo.fromRecords(res.Records), nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var where scope.Record
	switch {
	case filter.ID != "":
		if !isUUID(filter.ID) {
			return user.User{}, user.ErrNotFound
		}
		where = scope.Record{"id": filter.ID}
	case filter.Username != "":
		where = scope.Record{"username": filter.Username}
	case filter.Email != "":
		where = scope.Record{"email": filter.Email}
	case filter.UsernameOrEmail != "":
		where = scope.Record{scope.OrKey: scope.Or(
			scope.Record{"username": filter.UsernameOrEmail},
			scope.Record{"email": filter.UsernameOrEmail},
		)}
	default:
		return user.User{}, user.ErrNotFound
	}

	res, err := repo.exec.Execute(ctx, scope.Call{Entity: entityUsers, Action: scope.FindFirst, Where: where})
	if err != nil {
		return user.User{}, errors.Wrap(err, "finding user")
	}
	rec, found := res.First()
	if !found {
		return user.User{}, user.ErrNotFound
	}
	return repo.fromRecord(rec), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	if !isUUID(usr.ID) {
		return user.User{}, user.ErrNotFound
	}
	data := repo.toRecord(usr)
	delete(data, "id")
	delete(data, "school_id")
	delete(data, "created_at")

	res, err := repo.exec.Execute(ctx, scope.Call{
		Entity: entityUsers,
		Action: scope.Update,
		Where:  scope.Record{"id": usr.ID},
		Data:   data,
	})
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	rec, found := res.First()
	if !found {
		return user.User{}, user.ErrNotFound
	}
	return repo.fromRecord(rec), nil
}

func (repo userRepository) DeleteUsers(ctx context.Context, ids ...string) (int, error) {
	ids = validIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := repo.exec.Execute(ctx, scope.Call{
		Entity: entityUsers,
		Action: scope.DeleteMany,
		Where:  scope.Record{"id": scope.StringsIn(ids...)},
	})
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	return int(res.Affected), nil
}
