package sqlexec

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/storage/scope"
)

func newMock(t *testing.T) (*Executor, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func TestExecutor_findMany(t *testing.T) {
	exec, mock := newMock(t)

	mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE .*"school_id" = \$1.*ORDER BY "amount_due" DESC.*LIMIT 5.*OFFSET 10`).
		WithArgs("S1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "school_id"}).AddRow("1", "S1").AddRow("2", "S1"))

	res, err := exec.Execute(context.Background(), scope.Call{
		Entity:  "invoices",
		Action:  scope.FindMany,
		Where:   scope.Record{"school_id": "S1"},
		OrderBy: []core.DBOrdering{{Field: "amount_due"}},
		Limit:   5,
		Offset:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, []scope.Record{{"id": "1", "school_id": "S1"}, {"id": "2", "school_id": "S1"}}, res.Records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_findFirst(t *testing.T) {
	exec, mock := newMock(t)

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE .*"school_id" = \$1.*"username" = \$2.*LIMIT 1`).
		WithArgs("S1", "jane").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	res, err := exec.Execute(context.Background(), scope.Call{
		Entity: "users",
		Action: scope.FindFirst,
		Where:  scope.Record{"username": "jane", "school_id": "S1"},
	})
	require.NoError(t, err)
	_, ok := res.First()
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_count(t *testing.T) {
	exec, mock := newMock(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "learners" WHERE .*"school_id" = \$1`).
		WithArgs("S1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

	res, err := exec.Execute(context.Background(), scope.Call{Entity: "learners", Action: scope.Count, Where: scope.Record{"school_id": "S1"}})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_aggregate(t *testing.T) {
	exec, mock := newMock(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS "count", SUM\("amount_due"\) AS "sum_amount_due" FROM "invoices"`).
		WillReturnRows(sqlmock.NewRows([]string{"count", "sum_amount_due"}).AddRow(int64(2), []byte("4000")))

	res, err := exec.Execute(context.Background(), scope.Call{
		Entity: "invoices",
		Action: scope.Aggregate,
		Aggregates: []scope.AggregateField{
			{Op: scope.AggCount, Field: "*"},
			{Op: scope.AggSum, Field: "amount_due"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, scope.Record{"count": int64(2), "sum_amount_due": []byte("4000")}, res.Aggregates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_create(t *testing.T) {
	exec, mock := newMock(t)

	mock.ExpectQuery(`INSERT INTO "invoices" \("amount_due","school_id"\) VALUES \(\$1,\$2\) RETURNING \*`).
		WithArgs(int64(1000), "S1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "amount_due", "school_id"}).AddRow("1", int64(1000), "S1"))

	res, err := exec.Execute(context.Background(), scope.Call{
		Entity: "invoices",
		Action: scope.Create,
		Data:   scope.Record{"school_id": "S1", "amount_due": int64(1000)},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Affected)
	assert.Equal(t, scope.Record{"id": "1", "amount_due": int64(1000), "school_id": "S1"}, res.Records[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_createManyInTransaction(t *testing.T) {
	exec, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "learners" \("first_name","school_id"\)`).
		WithArgs("Amina", "S1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("1"))
	mock.ExpectQuery(`INSERT INTO "learners" \("first_name","school_id"\)`).
		WithArgs("Baraka", "S1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("2"))
	mock.ExpectCommit()

	res, err := exec.Execute(context.Background(), scope.Call{
		Entity: "learners",
		Action: scope.CreateMany,
		Batch: []scope.Record{
			{"first_name": "Amina", "school_id": "S1"},
			{"first_name": "Baraka", "school_id": "S1"},
		},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_createManyRollsBack(t *testing.T) {
	exec, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "learners"`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	_, err := exec.Execute(context.Background(), scope.Call{
		Entity: "learners",
		Action: scope.CreateMany,
		Batch:  []scope.Record{{"first_name": "Amina"}},
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_updateMany(t *testing.T) {
	exec, mock := newMock(t)

	mock.ExpectExec(`UPDATE "invoices" SET "status" = \$1 WHERE .*"school_id" = \$2`).
		WithArgs("PAID", "S1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	res, err := exec.Execute(context.Background(), scope.Call{
		Entity: "invoices",
		Action: scope.UpdateMany,
		Where:  scope.Record{"school_id": "S1"},
		Data:   scope.Record{"status": "PAID"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_update(t *testing.T) {
	exec, mock := newMock(t)

	mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE .*"id" = \$1.*"school_id" = \$2.*LIMIT 1`).
		WithArgs("1", "S1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow("1", "PENDING"))
	mock.ExpectExec(`UPDATE "invoices" SET "status" = \$1 WHERE .*"id" = \$2.*"school_id" = \$3`).
		WithArgs("PAID", "1", "S1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE .*"id" = \$1.*LIMIT 1`).
		WithArgs("1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow("1", "PAID"))

	res, err := exec.Execute(context.Background(), scope.Call{
		Entity: "invoices",
		Action: scope.Update,
		Where:  scope.Record{"id": "1", "school_id": "S1"},
		Data:   scope.Record{"status": "PAID"},
	})
	require.NoError(t, err)
	assert.Equal(t, "PAID", res.Records[0]["status"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_updateKeepsConditions(t *testing.T) {
	exec, mock := newMock(t)

	mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE .*"amount_paid" = \$1.*"id" = \$2.*LIMIT 1`).
		WithArgs(int64(0), "1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "amount_paid"}).AddRow("1", 0))
	// paid by someone else in between
	mock.ExpectExec(`UPDATE "invoices" SET "amount_paid" = \$1 WHERE .*"amount_paid" = \$2.*"id" = \$3`).
		WithArgs(int64(600), int64(0), "1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	res, err := exec.Execute(context.Background(), scope.Call{
		Entity: "invoices",
		Action: scope.Update,
		Where:  scope.Record{"id": "1", "amount_paid": int64(0)},
		Data:   scope.Record{"amount_paid": int64(600)},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_deleteMany(t *testing.T) {
	exec, mock := newMock(t)

	mock.ExpectExec(`DELETE FROM "users" WHERE .*"id" IN \(\$1,\$2\).*"school_id" = \$3`).
		WithArgs("1", "2", "S1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	res, err := exec.Execute(context.Background(), scope.Call{
		Entity: "users",
		Action: scope.DeleteMany,
		Where:  scope.Record{"id": scope.StringsIn("1", "2"), "school_id": "S1"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_rejectsBadIdentifiers(t *testing.T) {
	exec, mock := newMock(t)
	ctx := context.Background()

	_, err := exec.Execute(ctx, scope.Call{Entity: `users"; DROP TABLE users; --`, Action: scope.FindMany})
	assert.Error(t, err)

	_, err = exec.Execute(ctx, scope.Call{Entity: "users", Action: scope.FindMany, Where: scope.Record{"1=1 OR id": "x"}})
	assert.Error(t, err)

	_, err = exec.Execute(ctx, scope.Call{Entity: "users", Action: scope.FindMany, OrderBy: []core.DBOrdering{{Field: "name; --"}}})
	assert.Error(t, err)

	_, err = exec.Execute(ctx, scope.Call{Entity: "users", Action: "upsert"})
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
