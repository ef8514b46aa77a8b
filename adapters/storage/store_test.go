package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"widget-estimate/core/types"
	apperrors "widget-estimate/internal/errors"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	file, err := NewFileStore(filepath.Join(dir, "files"))
	require.NoError(t, err)
	sqlite, err := OpenSQLite(filepath.Join(dir, "db", "leads.db"))
	require.NoError(t, err)

	stores := map[string]Store{
		"file":   file,
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func sampleEstimate(total string) *types.EstimateResult {
	price := decimal.RequireFromString(total)
	return &types.EstimateResult{
		TotalPrice: price,
		BasePrice:  price,
		Subtotal:   price,
		TaxAmount:  decimal.Zero,
		Breakdown: []types.BreakdownLine{
			{Item: "Base Service", Description: "Studio move - base service", Price: price, Type: types.LineBase},
		},
		Currency: types.CurrencyUSD,
	}
}

func newLead(widget, total string, at time.Time) *Lead {
	return &Lead{
		WidgetKey: widget,
		Contact:   ContactInfo{Name: "Dana", Email: "dana@example.com"},
		Responses: json.RawMessage(`{"project-scope":{"selectedOption":"studio"}}`),
		Estimate:  sampleEstimate(total),
		SourceURL: "https://example.com/quote",
		CreatedAt: at,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			lead := newLead("acme", "350", time.Time{})
			require.NoError(t, store.Save(ctx, lead))

			assert.NotEmpty(t, lead.ID)
			assert.Equal(t, StatusNew, lead.Status)
			assert.False(t, lead.CreatedAt.IsZero())

			got, err := store.Get(ctx, lead.ID)
			require.NoError(t, err)
			assert.Equal(t, lead.ID, got.ID)
			assert.Equal(t, "acme", got.WidgetKey)
			assert.Equal(t, "Dana", got.Contact.DisplayName())
			assert.True(t, lead.CreatedAt.Equal(got.CreatedAt), "created_at %s != %s", lead.CreatedAt, got.CreatedAt)
			assert.JSONEq(t, string(lead.Responses), string(got.Responses))
			require.NotNil(t, got.Estimate)
			assert.True(t, got.TotalPrice().Equal(decimal.NewFromInt(350)))
			assert.True(t, got.HasValidEstimate())
			require.Len(t, got.Estimate.Breakdown, 1)
			assert.Equal(t, types.LineBase, got.Estimate.Breakdown[0].Type)
		})
	}
}

func TestStoreListFiltersAndOrders(t *testing.T) {
	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first := newLead("acme", "100", base)
			second := newLead("acme", "200", base.Add(time.Hour))
			other := newLead("beta", "300", base.Add(2*time.Hour))
			for _, l := range []*Lead{first, second, other} {
				require.NoError(t, store.Save(ctx, l))
			}

			all, err := store.List(ctx, nil)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, other.ID, all[0].ID)
			assert.Equal(t, first.ID, all[2].ID)

			acme, err := store.List(ctx, &ListFilter{WidgetKey: "acme"})
			require.NoError(t, err)
			require.Len(t, acme, 2)
			assert.Equal(t, second.ID, acme[0].ID)

			since, err := store.List(ctx, &ListFilter{Since: base.Add(30 * time.Minute)})
			require.NoError(t, err)
			assert.Len(t, since, 2)

			paged, err := store.List(ctx, &ListFilter{Limit: 1, Offset: 1})
			require.NoError(t, err)
			require.Len(t, paged, 1)
			assert.Equal(t, second.ID, paged[0].ID)

			none, err := store.List(ctx, &ListFilter{Status: "contacted"})
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestStoreDelete(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			lead := newLead("acme", "350", time.Time{})
			require.NoError(t, store.Save(ctx, lead))

			require.NoError(t, store.Delete(ctx, lead.ID))
			_, err := store.Get(ctx, lead.ID)
			assert.True(t, apperrors.IsType(err, apperrors.TypeNotFound), "get after delete: %v", err)

			err = store.Delete(ctx, lead.ID)
			assert.True(t, apperrors.IsType(err, apperrors.TypeNotFound), "second delete: %v", err)
		})
	}
}

func TestStoreRejectsInvalidLeads(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			cases := map[string]*Lead{
				"nil":         nil,
				"no widget":   {Estimate: sampleEstimate("1")},
				"bad widget":  {WidgetKey: "../x", Estimate: sampleEstimate("1")},
				"no estimate": {WidgetKey: "acme"},
				"bad id":      {ID: "not-a-uuid", WidgetKey: "acme", Estimate: sampleEstimate("1")},
			}
			for label, lead := range cases {
				err := store.Save(ctx, lead)
				assert.True(t, apperrors.IsType(err, apperrors.TypeInvalidRequest), "%s: %v", label, err)
			}
		})
	}
}

func TestStoreGetUnknown(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"00000000-0000-0000-0000-000000000000", "../../etc/passwd"} {
				_, err := store.Get(context.Background(), id)
				assert.True(t, apperrors.IsType(err, apperrors.TypeNotFound), "%s: %v", id, err)
			}
		})
	}
}

func TestStoreFactory(t *testing.T) {
	dir := t.TempDir()

	s, err := StoreFactory(BackendSQLite, Options{DSN: filepath.Join(dir, "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	s, err = StoreFactory(BackendFile, Options{Directory: filepath.Join(dir, "leads")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = StoreFactory("postgres", Options{})
	assert.True(t, apperrors.IsType(err, apperrors.TypeConfig))

	_, err = OpenSQLite("  ")
	assert.Error(t, err)
}

func TestContactDisplayName(t *testing.T) {
	assert.Equal(t, "Unknown", ContactInfo{}.DisplayName())
	assert.Equal(t, "Lee", ContactInfo{Name: "Lee"}.DisplayName())
}
