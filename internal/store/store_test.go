package store_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewwphillips/restaurantql/internal/model"
	"github.com/andrewwphillips/restaurantql/internal/store"
)

func newBolt(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewBolt(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func TestBolt(t *testing.T) {
	testStore(t, newBolt(t))
}

// TestMongo runs the same checks against a real server, eg:
//
//	RESTAURANTQL_TEST_MONGO_URL=mongodb://localhost:27017 go test ./internal/store
func TestMongo(t *testing.T) {
	uri := os.Getenv("RESTAURANTQL_TEST_MONGO_URL")
	if uri == "" {
		t.Skip("RESTAURANTQL_TEST_MONGO_URL not set")
	}
	ctx := context.Background()
	s, err := store.NewMongo(ctx, uri, "restaurantql_test", fmt.Sprintf("restaurants_%d", time.Now().UnixNano()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(ctx) })
	testStore(t, s)
}

func testStore(t *testing.T, s store.Store) {
	ctx := context.Background()

	madrid := model.Restaurant{Name: "Casa Lucía", Address: "Calle Mayor 1", City: "Madrid", Country: "Spain", Phone: "+34911234567"}
	id, err := s.Insert(ctx, &madrid)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, id, madrid.ID.Hex())
	assert.False(t, madrid.CreatedAt.IsZero())

	paris := model.Restaurant{Name: "Chez Paul", Address: "Rue de Charonne 13", City: "Paris", Country: "France", Phone: "+33143482142"}
	_, err = s.Insert(ctx, &paris)
	require.NoError(t, err)

	t.Run("FindByID", func(t *testing.T) {
		got, err := s.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Casa Lucía", got.Name)
		assert.Equal(t, "Calle Mayor 1", got.Address)
		assert.Equal(t, "Madrid", got.City)
		assert.Equal(t, "Spain", got.Country)
		assert.Equal(t, "+34911234567", got.Phone)
	})

	t.Run("FindByIDMissing", func(t *testing.T) {
		for _, id := range []string{"nonexistent", "000000000000000000000000", ""} {
			_, err := s.FindByID(ctx, id)
			assert.ErrorIs(t, err, store.ErrNotFound, "id %q", id)
		}
	})

	t.Run("FindByFilter", func(t *testing.T) {
		tests := map[string]struct {
			filter   store.Filter
			expected []string // names
		}{
			"city":         {store.Filter{model.FieldCity: "Madrid"}, []string{"Casa Lucía"}},
			"phone":        {store.Filter{model.FieldPhone: "+33143482142"}, []string{"Chez Paul"}},
			"both":         {store.Filter{model.FieldCity: "Paris", model.FieldCountry: "France"}, []string{"Chez Paul"}},
			"no_match":     {store.Filter{model.FieldCity: "Lisbon"}, []string{}},
			"case_matters": {store.Filter{model.FieldCity: "madrid"}, []string{}},
		}
		for name, tt := range tests {
			got, err := s.FindByFilter(ctx, tt.filter)
			require.NoError(t, err, name)
			require.NotNil(t, got, name)
			names := []string{}
			for _, r := range got {
				names = append(names, r.Name)
			}
			assert.Equal(t, tt.expected, names, name)
		}
	})

	t.Run("DuplicatePhone", func(t *testing.T) {
		dup := model.Restaurant{Name: "Other", Address: "Gran Vía 2", City: "Madrid", Country: "Spain", Phone: "+34911234567"}
		_, err := s.Insert(ctx, &dup)
		assert.ErrorIs(t, err, store.ErrDuplicateKey)

		got, err := s.FindByFilter(ctx, store.Filter{model.FieldPhone: "+34911234567"})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("Delete", func(t *testing.T) {
		deleted, err := s.DeleteByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = s.DeleteByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, deleted, "second delete")

		deleted, err = s.DeleteByID(ctx, "nonexistent")
		require.NoError(t, err)
		assert.False(t, deleted)

		_, err = s.FindByID(ctx, id)
		assert.ErrorIs(t, err, store.ErrNotFound)

		// the phone number is free again
		again := model.Restaurant{Name: "Casa Lucía", Address: "Calle Mayor 1", City: "Madrid", Country: "Spain", Phone: "+34911234567"}
		_, err = s.Insert(ctx, &again)
		assert.NoError(t, err)
	})
}

func TestBoltReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s, err := store.NewBolt(path)
	require.NoError(t, err)
	r := model.Restaurant{Name: "Kept", City: "Lisbon", Phone: "+351213456789"}
	id, err := s.Insert(ctx, &r)
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))

	s, err = store.NewBolt(path)
	require.NoError(t, err)
	defer s.Close(ctx)
	got, err := s.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Kept", got.Name)
}
