package inmemdb

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/educore/core"
	"github.com/trezcool/educore/storage/scope"
)

func seed(t *testing.T, db *DB) {
	now := time.Now().UTC()
	_, err := db.Execute(context.Background(), scope.Call{
		Entity: "invoices",
		Action: scope.CreateMany,
		Batch: []scope.Record{
			{"id": "1", "school_id": "S1", "term": "T1", "amount_due": int64(1000), "roles": []string{"admin:owner"}, "created_at": now},
			{"id": "2", "school_id": "S1", "term": "T2", "amount_due": int64(3000), "roles": []string{"teacher:"}, "created_at": now.Add(time.Hour)},
			{"id": "3", "school_id": "S2", "term": "T1", "amount_due": int64(500), "roles": []string{}, "created_at": now.Add(2 * time.Hour)},
		},
	})
	require.NoError(t, err)
}

func ids(recs []scope.Record) []interface{} {
	out := make([]interface{}, 0, len(recs))
	for _, r := range recs {
		out = append(out, r["id"])
	}
	return out
}

func TestDB_find(t *testing.T) {
	db := Open()
	seed(t, db)
	now := time.Now().UTC()

	tests := []struct {
		name string
		call scope.Call
		want []interface{}
	}{
		{name: "all", call: scope.Call{}, want: []interface{}{"1", "2", "3"}},
		{name: "equality", call: scope.Call{Where: scope.Record{"school_id": "S1"}}, want: []interface{}{"1", "2"}},
		{name: "numeric equality across int kinds", call: scope.Call{Where: scope.Record{"amount_due": 500}}, want: []interface{}{"3"}},
		{name: "in", call: scope.Call{Where: scope.Record{"id": scope.StringsIn("1", "3")}}, want: []interface{}{"1", "3"}},
		{name: "not in", call: scope.Call{Where: scope.Record{"id": scope.StringsNotIn("1", "3")}}, want: []interface{}{"2"}},
		{name: "gte", call: scope.Call{Where: scope.Record{"amount_due": scope.Gte(int64(1000))}}, want: []interface{}{"1", "2"}},
		{name: "lte time", call: scope.Call{Where: scope.Record{"created_at": scope.Lte(now.Add(30 * time.Minute))}}, want: []interface{}{"1"}},
		{name: "range", call: scope.Call{Where: scope.Record{"amount_due": scope.Range(int64(600), int64(1000))}}, want: []interface{}{"1"}},
		{name: "open range", call: scope.Call{Where: scope.Record{"amount_due": scope.Range(nil, 1000)}}, want: []interface{}{"1", "3"}},
		{
			name: "several or groups",
			call: scope.Call{Where: scope.Record{
				"OR_a": scope.Or(scope.Record{"term": "T1"}, scope.Record{"term": "T2"}),
				"OR_b": scope.Or(scope.Record{"school_id": "S2"}),
			}},
			want: []interface{}{"3"},
		},
		{name: "any prefix", call: scope.Call{Where: scope.Record{"roles": scope.AnyPrefix("ADMIN:")}}, want: []interface{}{"1"}},
		{
			name: "or",
			call: scope.Call{Where: scope.Record{scope.OrKey: scope.Or(scope.Record{"term": "T2"}, scope.Record{"school_id": "S2"})}},
			want: []interface{}{"2", "3"},
		},
		{
			name: "order desc + limit + offset",
			call: scope.Call{OrderBy: []core.DBOrdering{{Field: "amount_due"}}, Limit: 1, Offset: 1},
			want: []interface{}{"1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.call.Entity = "invoices"
			tt.call.Action = scope.FindMany
			res, err := db.Execute(context.Background(), tt.call)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(res.Records))
		})
	}
}

func TestDB_findReturnsCopies(t *testing.T) {
	db := Open()
	seed(t, db)
	ctx := context.Background()

	res, err := db.Execute(ctx, scope.Call{Entity: "invoices", Action: scope.FindFirst, Where: scope.Record{"id": "1"}})
	require.NoError(t, err)
	rec, ok := res.First()
	require.True(t, ok)
	rec["term"] = "changed"

	res, err = db.Execute(ctx, scope.Call{Entity: "invoices", Action: scope.FindFirst, Where: scope.Record{"id": "1"}})
	require.NoError(t, err)
	assert.Equal(t, "T1", res.Records[0]["term"])
}

func TestDB_createGeneratesID(t *testing.T) {
	db := Open()
	res, err := db.Execute(context.Background(), scope.Call{Entity: "schools", Action: scope.Create, Data: scope.Record{"name": "Elim"}})
	require.NoError(t, err)
	rec, _ := res.First()
	assert.NotEmpty(t, rec["id"])
	assert.Equal(t, "Elim", rec["name"])
}

func TestDB_countAndAggregate(t *testing.T) {
	db := Open()
	seed(t, db)
	ctx := context.Background()

	res, err := db.Execute(ctx, scope.Call{Entity: "invoices", Action: scope.Count, Where: scope.Record{"school_id": "S1"}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Affected)

	res, err = db.Execute(ctx, scope.Call{
		Entity: "invoices",
		Action: scope.Aggregate,
		Where:  scope.Record{"school_id": "S1"},
		Aggregates: []scope.AggregateField{
			{Op: scope.AggCount, Field: "*"},
			{Op: scope.AggSum, Field: "amount_due"},
			{Op: scope.AggAvg, Field: "amount_due"},
			{Op: scope.AggMin, Field: "amount_due"},
			{Op: scope.AggMax, Field: "term"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, scope.Record{
		"count":          int64(2),
		"sum_amount_due": float64(4000),
		"avg_amount_due": float64(2000),
		"min_amount_due": int64(1000),
		"max_term":       "T2",
	}, res.Aggregates)
}

func TestDB_updateAndDelete(t *testing.T) {
	db := Open()
	seed(t, db)
	ctx := context.Background()

	res, err := db.Execute(ctx, scope.Call{
		Entity: "invoices", Action: scope.UpdateMany,
		Where: scope.Record{"term": "T1"}, Data: scope.Record{"status": "PAID"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Affected)

	res, err = db.Execute(ctx, scope.Call{
		Entity: "invoices", Action: scope.Update,
		Where: scope.Record{"school_id": "S1"}, Data: scope.Record{"status": "VOID"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Affected)
	assert.Equal(t, "VOID", res.Records[0]["status"])

	res, err = db.Execute(ctx, scope.Call{Entity: "invoices", Action: scope.DeleteMany, Where: scope.Record{"school_id": "S1"}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Affected)

	res, err = db.Execute(ctx, scope.Call{Entity: "invoices", Action: scope.FindMany})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"3"}, ids(res.Records))
	assert.Equal(t, "PAID", res.Records[0]["status"])
}

func TestDB_unknownAction(t *testing.T) {
	_, err := Open().Execute(context.Background(), scope.Call{Entity: "invoices", Action: "upsert"})
	assert.Error(t, err)
}

func TestDB_concurrentReadsOfMissingTables(t *testing.T) {
	db := Open()
	entities := []string{"classes", "assessments", "attendance_records", "learners", "schools"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entity := entities[i%len(entities)]
			_, err := db.Execute(context.Background(), scope.Call{Entity: entity, Action: scope.FindMany})
			assert.NoError(t, err)
			if i%10 == 0 {
				_, err = db.Execute(context.Background(), scope.Call{Entity: entity, Action: scope.Create, Data: scope.Record{"n": i}})
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	res, err := db.Execute(context.Background(), scope.Call{Entity: "classes", Action: scope.Count})
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.Affected)
}

func TestDB_readingMissingTableKeepsNothing(t *testing.T) {
	db := Open()
	res, err := db.Execute(context.Background(), scope.Call{Entity: "nothing", Action: scope.Count})
	require.NoError(t, err)
	assert.Zero(t, res.Affected)
	assert.NotContains(t, db.tables, "nothing")
}
