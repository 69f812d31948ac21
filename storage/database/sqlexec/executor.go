// Package sqlexec runs scope calls against Postgres.
package sqlexec

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/boil"
	"github.com/volatiletech/sqlboiler/v4/drivers"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"
	"github.com/volatiletech/strmangle"

	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/storage/scope"
)

var (
	dialect = drivers.Dialect{
		LQ:                   '"',
		RQ:                   '"',
		UseIndexPlaceholders: true,
	}

	errUnknownAction = errors.New("unknown action")
)

// Executor translates calls into SQL statements. Returned records hold the
// raw driver values (e.g. []byte for UUID & array columns).
type Executor struct {
	db core.DBExecutor
}

var _ scope.Executor = (*Executor)(nil) // interface compliance check

func New(db core.DBExecutor) *Executor {
	return &Executor{db: db}
}

func (e *Executor) Execute(ctx context.Context, call scope.Call) (scope.Result, error) {
	table, err := quote(call.Entity)
	if err != nil {
		return scope.Result{}, errors.Wrap(err, "entity")
	}

	switch call.Action {
	case scope.FindMany:
		recs, err := e.find(ctx, e.db, table, call, 0)
		return scope.Result{Records: recs}, err
	case scope.FindFirst, scope.FindUnique:
		recs, err := e.find(ctx, e.db, table, call, 1)
		return scope.Result{Records: recs}, err
	case scope.Count:
		n, err := e.count(ctx, table, call.Where)
		return scope.Result{Affected: n}, err
	case scope.Aggregate:
		aggs, err := e.aggregate(ctx, table, call)
		return scope.Result{Aggregates: aggs}, err
	case scope.Create:
		rec, err := e.insert(ctx, e.db, table, call.Data)
		if err != nil {
			return scope.Result{}, err
		}
		return scope.Result{Records: []scope.Record{rec}, Affected: 1}, nil
	case scope.CreateMany:
		return e.insertMany(ctx, table, call.Batch)
	case scope.Update:
		return e.updateFirst(ctx, table, call)
	case scope.UpdateMany:
		n, err := e.update(ctx, table, call.Where, call.Data)
		return scope.Result{Affected: n}, err
	case scope.Delete:
		return e.deleteFirst(ctx, table, call)
	case scope.DeleteMany:
		n, err := e.delete(ctx, table, call.Where)
		return scope.Result{Affected: n}, err
	}
	return scope.Result{}, errors.Wrap(errUnknownAction, string(call.Action))
}

func newQuery(table string, where scope.Record) (*queries.Query, error) {
	mods, err := whereMods(where)
	if err != nil {
		return nil, err
	}
	q := &queries.Query{}
	queries.SetDialect(q, &dialect)
	qm.Apply(q, append([]qm.QueryMod{qm.From(table)}, mods...)...)
	return q, nil
}

func (e *Executor) find(ctx context.Context, exec boil.ContextExecutor, table string, call scope.Call, limit int) ([]scope.Record, error) {
	q, err := newQuery(table, call.Where)
	if err != nil {
		return nil, err
	}

	if len(call.OrderBy) > 0 {
		orderList := make([]string, 0, len(call.OrderBy))
		for _, ord := range call.OrderBy {
			col, err := quote(ord.Field)
			if err != nil {
				return nil, errors.Wrap(err, "ordering")
			}
			orderList = append(orderList, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
		qm.Apply(q, qm.OrderBy(strings.Join(orderList, ", ")))
	}
	if call.Limit > 0 && (limit == 0 || call.Limit < limit) {
		limit = call.Limit
	}
	if limit > 0 {
		qm.Apply(q, qm.Limit(limit))
	}
	if call.Offset > 0 {
		qm.Apply(q, qm.Offset(call.Offset))
	}

	rows, err := q.QueryContext(ctx, exec)
	if err != nil {
		return nil, errors.Wrapf(err, "selecting %s", table)
	}
	return scanRecords(rows)
}

func (e *Executor) count(ctx context.Context, table string, where scope.Record) (int64, error) {
	q, err := newQuery(table, where)
	if err != nil {
		return 0, err
	}
	qm.Apply(q, qm.Select("COUNT(*)"))

	var n int64
	if err = q.QueryRowContext(ctx, e.db).Scan(&n); err != nil {
		return 0, errors.Wrapf(err, "counting %s", table)
	}
	return n, nil
}

func (e *Executor) aggregate(ctx context.Context, table string, call scope.Call) (scope.Record, error) {
	if len(call.Aggregates) == 0 {
		return scope.Record{}, nil
	}

	cols := make([]string, 0, len(call.Aggregates))
	for _, f := range call.Aggregates {
		target := "*"
		if f.Field != "*" {
			col, err := quote(f.Field)
			if err != nil {
				return nil, errors.Wrap(err, "aggregate")
			}
			target = col
		} else if f.Op != scope.AggCount {
			return nil, errors.Wrapf(errBadCondition, "%s(*)", f.Op)
		}
		switch f.Op {
		case scope.AggCount, scope.AggSum, scope.AggAvg, scope.AggMin, scope.AggMax:
		default:
			return nil, errors.Wrapf(errBadCondition, "unsupported aggregate %q", f.Op)
		}
		cols = append(cols, fmt.Sprintf("%s(%s) AS %s", strings.ToUpper(string(f.Op)), target, strmangle.IdentQuote('"', '"', f.Key())))
	}

	q, err := newQuery(table, call.Where)
	if err != nil {
		return nil, err
	}
	qm.Apply(q, qm.Select(cols...))

	rows, err := q.QueryContext(ctx, e.db)
	if err != nil {
		return nil, errors.Wrapf(err, "aggregating %s", table)
	}
	recs, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return scope.Record{}, nil
	}
	return recs[0], nil
}

func (e *Executor) insert(ctx context.Context, exec boil.ContextExecutor, table string, data scope.Record) (scope.Record, error) {
	keys := sortedKeys(data)
	cols := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys))
	for _, key := range keys {
		col, err := quote(key)
		if err != nil {
			return nil, errors.Wrap(err, "insert")
		}
		cols = append(cols, col)
		args = append(args, value(data[key]))
	}

	var stmt string
	if len(cols) == 0 {
		stmt = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING *", table)
	} else {
		stmt = fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s) RETURNING *",
			table, strings.Join(cols, ","), strmangle.Placeholders(dialect.UseIndexPlaceholders, len(cols), 1, 1),
		)
	}

	if boil.DebugMode {
		_, _ = fmt.Fprintln(boil.DebugWriter, stmt)
		_, _ = fmt.Fprintln(boil.DebugWriter, args...)
	}

	rows, err := queries.Raw(stmt, args...).QueryContext(ctx, exec)
	if err != nil {
		return nil, errors.Wrapf(err, "inserting into %s", table)
	}
	recs, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.Errorf("inserting into %s: no row returned", table)
	}
	return recs[0], nil
}

// insertMany inserts the whole batch in one transaction when the executor can start one.
func (e *Executor) insertMany(ctx context.Context, table string, batch []scope.Record) (res scope.Result, err error) {
	exec := boil.ContextExecutor(e.db)
	if db, ok := e.db.(core.DB); ok {
		var tx *sql.Tx
		if tx, err = db.BeginTx(ctx, nil); err != nil {
			return scope.Result{}, errors.Wrap(err, "beginning transaction")
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback()
				return
			}
			err = errors.Wrap(tx.Commit(), "committing transaction")
		}()
		exec = tx
	}

	recs := make([]scope.Record, 0, len(batch))
	for _, data := range batch {
		rec, err := e.insert(ctx, exec, table, data)
		if err != nil {
			return scope.Result{}, err
		}
		recs = append(recs, rec)
	}
	return scope.Result{Records: recs, Affected: int64(len(recs))}, nil
}

func (e *Executor) update(ctx context.Context, table string, where, data scope.Record) (int64, error) {
	if len(data) == 0 {
		return 0, nil
	}
	cols := make(map[string]interface{}, len(data))
	for key, val := range data {
		if !core.IsIdentifier(key) {
			return 0, errors.Wrap(errBadIdentifier, key)
		}
		cols[key] = value(val)
	}

	q, err := newQuery(table, where)
	if err != nil {
		return 0, err
	}
	queries.SetUpdate(q, cols)

	res, err := q.ExecContext(ctx, e.db)
	if err != nil {
		return 0, errors.Wrapf(err, "updating %s", table)
	}
	n, err := res.RowsAffected()
	return n, errors.Wrap(err, "rows affected")
}

// updateFirst updates the first matching record and returns it as stored. The update keeps
// the conditions of the call, so a record changed since it was found is left as is.
func (e *Executor) updateFirst(ctx context.Context, table string, call scope.Call) (scope.Result, error) {
	found, err := e.find(ctx, e.db, table, scope.Call{Where: call.Where}, 1)
	if err != nil || len(found) == 0 {
		return scope.Result{}, err
	}
	byID := scope.Record{"id": found[0]["id"]}
	where := call.Where.Clone()
	if where == nil {
		where = make(scope.Record, 1)
	}
	where["id"] = found[0]["id"]

	n, err := e.update(ctx, table, where, call.Data)
	if err != nil || n == 0 {
		return scope.Result{}, err
	}
	recs, err := e.find(ctx, e.db, table, scope.Call{Where: byID}, 1)
	if err != nil {
		return scope.Result{}, err
	}
	return scope.Result{Records: recs, Affected: int64(len(recs))}, nil
}

func (e *Executor) delete(ctx context.Context, table string, where scope.Record) (int64, error) {
	q, err := newQuery(table, where)
	if err != nil {
		return 0, err
	}
	queries.SetDelete(q)

	res, err := q.ExecContext(ctx, e.db)
	if err != nil {
		return 0, errors.Wrapf(err, "deleting from %s", table)
	}
	n, err := res.RowsAffected()
	return n, errors.Wrap(err, "rows affected")
}

// deleteFirst deletes the first matching record and returns it.
func (e *Executor) deleteFirst(ctx context.Context, table string, call scope.Call) (scope.Result, error) {
	found, err := e.find(ctx, e.db, table, scope.Call{Where: call.Where}, 1)
	if err != nil || len(found) == 0 {
		return scope.Result{}, err
	}
	n, err := e.delete(ctx, table, scope.Record{"id": found[0]["id"]})
	if err != nil {
		return scope.Result{}, err
	}
	return scope.Result{Records: found, Affected: n}, nil
}

func scanRecords(rows *sql.Rows) ([]scope.Record, error) {
	defer func() { _ = rows.Close() }()

	recs := make([]scope.Record, 0)
	for rows.Next() {
		rec := make(map[string]interface{})
		if err := sqlx.MapScan(rows, rec); err != nil {
			return nil, errors.Wrap(err, "scanning row")
		}
		recs = append(recs, rec)
	}
	return recs, errors.Wrap(rows.Err(), "iterating rows")
}
