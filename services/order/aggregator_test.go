package order

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/upb/storefront-api/models"
	"github.com/upb/storefront-api/services"
)

func line(price string, qty int) models.CartItem {
	return *models.NewCartItem(uuid.New(), decimal.RequireFromString(price), qty, nil)
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name      string
		items     []models.CartItem
		wantItems int
		wantTotal string
	}{
		{"empty", nil, 0, "0"},
		{"single line", []models.CartItem{line("10.50", 2)}, 2, "21"},
		{"fractional prices", []models.CartItem{line("19.99", 3), line("5.00", 2)}, 5, "69.97"},
		{"no float drift", []models.CartItem{line("0.10", 1), line("0.20", 1)}, 2, "0.3"},
		{"many cents", []models.CartItem{line("0.01", 100), line("0.01", 1)}, 101, "1.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.items)
			assert.Equal(t, tt.wantItems, got.Items)
			assert.True(t, decimal.RequireFromString(tt.wantTotal).Equal(got.Total),
				"want %s, got %s", tt.wantTotal, got.Total)
		})
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	prices := []string{"19.99", "5.00", "0.01", "123.45", "7.77", "3.33"}

	for round := 0; round < 50; round++ {
		n := 1 + rng.Intn(10)
		items := make([]models.CartItem, n)
		for i := range items {
			items[i] = line(prices[rng.Intn(len(prices))], 1+rng.Intn(9))
		}
		want := Aggregate(items)

		shuffled := append([]models.CartItem(nil), items...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := Aggregate(shuffled)

		assert.Equal(t, want.Items, got.Items)
		assert.True(t, want.Total.Equal(got.Total))
	}
}

func TestAggregate_MatchesSumOfSubtotals(t *testing.T) {
	items := []models.CartItem{line("19.99", 3), line("5.00", 2), line("0.333", 3)}
	expected := decimal.Zero
	for _, it := range items {
		expected = expected.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	assert.True(t, expected.Equal(Aggregate(items).Total))
}

func TestTotals_Validate(t *testing.T) {
	assert.NoError(t, Totals{Items: 1, Total: decimal.NewFromInt(1)}.Validate())

	for _, bad := range []Totals{
		{},
		{Items: 0, Total: decimal.NewFromInt(5)},
		{Items: 2, Total: decimal.Zero},
		{Items: 2, Total: decimal.NewFromInt(-3)},
	} {
		err := bad.Validate()
		assert.ErrorIs(t, err, services.ErrOrderIntegrity)
		assert.True(t, services.IsInternalError(err))
	}
}
