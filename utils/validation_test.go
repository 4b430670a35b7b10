package utils

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineItem struct {
	Price    decimal.Decimal `json:"price" validate:"gt=0"`
	Quantity int             `json:"quantity" validate:"required,gt=0"`
}

type testPayload struct {
	Email  string           `json:"email" validate:"required,email"`
	Rating *decimal.Decimal `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	Role   string           `json:"role,omitempty" validate:"omitempty,oneof=Admin Customer"`
	Items  []lineItem       `json:"items" validate:"required,min=1,dive"`
}

func TestValidateStruct(t *testing.T) {
	rating := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}
	valid := func() testPayload {
		return testPayload{
			Email: "jane@example.com",
			Items: []lineItem{{Price: decimal.RequireFromString("19.99"), Quantity: 3}},
		}
	}

	tests := []struct {
		name      string
		mutate    func(p *testPayload)
		wantField string
	}{
		{"valid payload", func(p *testPayload) {}, ""},
		{"missing email", func(p *testPayload) { p.Email = "" }, "email"},
		{"invalid email", func(p *testPayload) { p.Email = "nope" }, "email"},
		{"unknown role", func(p *testPayload) { p.Role = "Root" }, "role"},
		{"no items", func(p *testPayload) { p.Items = nil }, "items"},
		{"zero price", func(p *testPayload) { p.Items[0].Price = decimal.Zero }, "items[0].price"},
		{"negative price", func(p *testPayload) { p.Items[0].Price = decimal.RequireFromString("-1") }, "items[0].price"},
		{"zero quantity", func(p *testPayload) { p.Items[0].Quantity = 0 }, "items[0].quantity"},
		{"rating in range", func(p *testPayload) { p.Rating = rating("4.5") }, ""},
		{"rating too high", func(p *testPayload) { p.Rating = rating("5.5") }, "rating"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(&p)

			err := ValidateStruct(&p)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, GetValidationFields(err), tt.wantField)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"email":"jane@example.com","items":[{"price":"5.00","quantity":2}]}`, ""},
		{"numeric price", `{"email":"jane@example.com","items":[{"price":5.5,"quantity":2}]}`, ""},
		{"empty body", ``, "Request body is required"},
		{"malformed", `{"email":`, "Invalid request body"},
		{"unknown field", `{"email":"jane@example.com","admin":true,"items":[{"price":"1","quantity":1}]}`, "Invalid request body"},
		{"trailing object", `{"email":"jane@example.com","items":[{"price":"1","quantity":1}]}{}`, "single JSON object"},
		{"fails validation", `{"email":"jane@example.com","items":[]}`, "Validation failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			var p testPayload

			err := DecodeJSON(req, &p)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "jane@example.com", p.Email)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseUUID(t *testing.T) {
	id := uuid.New()
	got, err := ParseUUID(id.String(), "id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseUUID("42", "orderId")
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, GetValidationFields(err), "orderId")
}

func TestGetValidationFields_NonValidationError(t *testing.T) {
	assert.Nil(t, GetValidationFields(assert.AnError))
	assert.False(t, IsValidationError(assert.AnError))
}
