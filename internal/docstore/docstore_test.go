package docstore_test

import (
	"context"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "groups-service/internal/db"
	"groups-service/internal/docstore"
)

// testDoc is a minimal document shape covering scalar and array fields.
type testDoc struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Owner string   `json:"owner"`
	Tags  []string `json:"tags"`
}

// backends returns every Store implementation under test. The two must be
// behaviorally interchangeable: handlers and repositories are tested against
// the memory store while production runs on SQLite.
func backends(t *testing.T) map[string]docstore.Store {
	t.Helper()

	writeDB, readDB := internaldb.OpenTestSQLite(t)
	return map[string]docstore.Store{
		"sqlite": docstore.NewSQLiteStore(writeDB, readDB),
		"memory": docstore.NewMemoryStore(),
	}
}

func TestInsertAssignsIDAndRoundTrips(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			id, err := store.Insert(ctx, "docs", testDoc{Name: "alpha", Owner: "u1", Tags: []string{"x"}})
			require.NoError(t, err)
			require.NotEmpty(t, id)

			var got testDoc
			require.NoError(t, store.GetByID(ctx, "docs", id, &got))
			assert.Equal(t, testDoc{ID: id, Name: "alpha", Owner: "u1", Tags: []string{"x"}}, got)
		})
	}
}

func TestGetByIDMissing(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var got testDoc
			err := store.GetByID(context.Background(), "docs", "missing", &got)
			assert.ErrorIs(t, err, docstore.ErrNoDocument)
		})
	}
}

func TestFindOneEquality(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := store.Insert(ctx, "docs", testDoc{Name: "alpha", Owner: "u1"})
			require.NoError(t, err)
			_, err = store.Insert(ctx, "docs", testDoc{Name: "beta", Owner: "u2"})
			require.NoError(t, err)

			var got testDoc
			require.NoError(t, store.FindOne(ctx, "docs", docstore.Eq("owner", "u2"), &got))
			assert.Equal(t, "beta", got.Name)

			err = store.FindOne(ctx, "docs", docstore.Eq("owner", "u9"), &got)
			assert.ErrorIs(t, err, docstore.ErrNoDocument)
		})
	}
}

func TestFindOneAmbiguous(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 2; i++ {
				_, err := store.Insert(ctx, "docs", testDoc{Name: "dup", Owner: "u1"})
				require.NoError(t, err)
			}

			var got testDoc
			err := store.FindOne(ctx, "docs", docstore.Eq("owner", "u1"), &got)
			assert.ErrorIs(t, err, docstore.ErrAmbiguous)
		})
	}
}

func TestFindManyArrayContainsInInsertionOrder(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first, err := store.Insert(ctx, "docs", testDoc{Name: "first", Tags: []string{"a", "b"}})
			require.NoError(t, err)
			_, err = store.Insert(ctx, "docs", testDoc{Name: "skip", Tags: []string{"c"}})
			require.NoError(t, err)
			second, err := store.Insert(ctx, "docs", testDoc{Name: "second", Tags: []string{"b"}})
			require.NoError(t, err)

			var got []testDoc
			require.NoError(t, store.FindMany(ctx, "docs", docstore.ArrayContains("tags", "b"), &got))
			require.Len(t, got, 2)
			assert.Equal(t, first, got[0].ID)
			assert.Equal(t, second, got[1].ID)
		})
	}
}

func TestFindManyNoMatchesIsEmpty(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var got []testDoc
			err := store.FindMany(context.Background(), "docs", docstore.Eq("owner", "nobody"), &got)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestUpdateFieldsReplacesArraysWholesale(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id, err := store.Insert(ctx, "docs", testDoc{Name: "alpha", Owner: "u1", Tags: []string{"a", "b"}})
			require.NoError(t, err)

			require.NoError(t, store.UpdateFields(ctx, "docs", id, map[string]any{
				"tags": []string{"c"},
			}))

			var got testDoc
			require.NoError(t, store.GetByID(ctx, "docs", id, &got))
			assert.Equal(t, []string{"c"}, got.Tags, "arrays are replaced, not merged")
			assert.Equal(t, "alpha", got.Name, "untouched fields survive the patch")
			assert.Equal(t, id, got.ID)
		})
	}
}

func TestAddToSetAppendsWhenAbsent(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id, err := store.Insert(ctx, "docs", testDoc{Name: "alpha", Tags: []string{"a"}})
			require.NoError(t, err)

			require.NoError(t, store.AddToSet(ctx, "docs", id, "tags", "b"))

			var got testDoc
			require.NoError(t, store.GetByID(ctx, "docs", id, &got))
			assert.Equal(t, []string{"a", "b"}, got.Tags)
			assert.Equal(t, "alpha", got.Name, "untouched fields survive")
		})
	}
}

func TestAddToSetIsIdempotent(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id, err := store.Insert(ctx, "docs", testDoc{Name: "alpha", Tags: []string{"a"}})
			require.NoError(t, err)

			require.NoError(t, store.AddToSet(ctx, "docs", id, "tags", "a"))

			var got testDoc
			require.NoError(t, store.GetByID(ctx, "docs", id, &got))
			assert.Equal(t, []string{"a"}, got.Tags)
		})
	}
}

func TestAddToSetMissingFieldStartsEmpty(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id, err := store.Insert(ctx, "docs", testDoc{Name: "alpha"})
			require.NoError(t, err)

			require.NoError(t, store.AddToSet(ctx, "docs", id, "tags", "a"))

			var got testDoc
			require.NoError(t, store.GetByID(ctx, "docs", id, &got))
			assert.Equal(t, []string{"a"}, got.Tags)
		})
	}
}

func TestAddToSetMissingDocument(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := store.AddToSet(context.Background(), "docs", "missing", "tags", "a")
			assert.ErrorIs(t, err, docstore.ErrNoDocument)
		})
	}
}

func TestAddToSetConcurrentAddsAllLand(t *testing.T) {
	// The membership check and append are one store operation; concurrent
	// additions must never overwrite each other's elements.
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id, err := store.Insert(ctx, "docs", testDoc{Name: "alpha"})
			require.NoError(t, err)

			values := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
			var wg sync.WaitGroup
			errs := make([]error, len(values))
			for i, v := range values {
				i, v := i, v
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs[i] = store.AddToSet(ctx, "docs", id, "tags", v)
				}()
			}
			wg.Wait()
			for i, err := range errs {
				require.NoError(t, err, "add %q", values[i])
			}

			var got testDoc
			require.NoError(t, store.GetByID(ctx, "docs", id, &got))
			assert.ElementsMatch(t, values, got.Tags)
		})
	}
}

func TestUpdateFieldsMissingDocument(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := store.UpdateFields(context.Background(), "docs", "missing", map[string]any{"name": "x"})
			assert.ErrorIs(t, err, docstore.ErrNoDocument)
		})
	}
}

func TestCollectionsAreIsolated(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id, err := store.Insert(ctx, "docs", testDoc{Name: "alpha"})
			require.NoError(t, err)

			var got testDoc
			err = store.GetByID(ctx, "other", id, &got)
			assert.ErrorIs(t, err, docstore.ErrNoDocument)
		})
	}
}
