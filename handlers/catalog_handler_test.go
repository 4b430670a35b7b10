package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/storefront-api/repositories/memory"
	"github.com/upb/storefront-api/services/category"
	"github.com/upb/storefront-api/services/product"
	"go.uber.org/zap"
)

func catalogRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	repos := memory.NewStore(logger).NewRepositories()
	h := NewCatalogHandler(
		category.NewService(repos.Categories, logger),
		product.NewService(repos.Products, repos.Categories, logger),
		logger,
	)

	r := chi.NewRouter()
	r.Post("/categories", h.HandleCreateCategory)
	r.Get("/categories", h.HandleListCategories)
	r.Get("/categories/{id}", h.HandleGetCategory)
	r.Patch("/categories/{id}", h.HandleUpdateCategory)
	r.Delete("/categories/{id}", h.HandleDeleteCategory)
	r.Post("/products", h.HandleCreateProduct)
	r.Get("/products", h.HandleListProducts)
	r.Get("/products/{id}", h.HandleGetProduct)
	r.Patch("/products/{id}", h.HandleUpdateProduct)
	r.Delete("/products/{id}", h.HandleDeleteProduct)
	return r
}

func dataID(t *testing.T, body []byte) string {
	t.Helper()
	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotEmpty(t, resp.Data.ID)
	return resp.Data.ID
}

func TestCatalogHandler_Lifecycle(t *testing.T) {
	r := catalogRouter(t)

	w := serve(r, http.MethodGet, "/categories", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())

	w = serve(r, http.MethodPost, "/categories", `{"name":"Kitchen"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	catID := dataID(t, w.Body.Bytes())

	w = serve(r, http.MethodPost, "/products",
		`{"name":"Kettle","price":"24.50","rating":"4.5","brand":"Acme","quantity":10,"categoryId":"`+catID+`"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	prodID := dataID(t, w.Body.Bytes())

	w = serve(r, http.MethodPatch, "/products/"+prodID, `{"price":"19.99"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"19.99"`)

	w = serve(r, http.MethodDelete, "/categories/"+catID, "")
	assert.Equal(t, http.StatusConflict, w.Code, "category still has products")

	w = serve(r, http.MethodDelete, "/products/"+prodID, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodGet, "/products/"+prodID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(r, http.MethodDelete, "/categories/"+catID, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCatalogHandler_Rejections(t *testing.T) {
	r := catalogRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"product with unknown category", http.MethodPost, "/products", `{"name":"Kettle","price":"5","brand":"Acme","quantity":1,"categoryId":"6f1c2b1e-8c1d-4c1b-9e1d-1a2b3c4d5e6f"}`, http.StatusNotFound},
		{"product with zero price", http.MethodPost, "/products", `{"name":"Kettle","price":"0","brand":"Acme","quantity":1,"categoryId":"6f1c2b1e-8c1d-4c1b-9e1d-1a2b3c4d5e6f"}`, http.StatusBadRequest},
		{"rating above five", http.MethodPost, "/products", `{"name":"Kettle","price":"5","rating":"7","brand":"Acme","quantity":1,"categoryId":"6f1c2b1e-8c1d-4c1b-9e1d-1a2b3c4d5e6f"}`, http.StatusBadRequest},
		{"category without name", http.MethodPost, "/categories", `{}`, http.StatusBadRequest},
		{"malformed id", http.MethodGet, "/categories/abc", "", http.StatusBadRequest},
		{"unknown category", http.MethodGet, "/categories/6f1c2b1e-8c1d-4c1b-9e1d-1a2b3c4d5e6f", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
