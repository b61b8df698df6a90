package products

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian-pos/internal/masterdata/shared"
	internalShared "github.com/meridian-pos/meridian-pos/internal/shared"
)

type stubRepo struct {
	err     error
	product Product
}

func (s *stubRepo) List(context.Context, shared.ListFilters) ([]Product, int, error) {
	return nil, 0, s.err
}

func (s *stubRepo) Get(context.Context, int64) (Product, error) {
	return s.product, s.err
}

func (s *stubRepo) GetByBarcode(context.Context, string) (Product, error) {
	return s.product, s.err
}

func (s *stubRepo) ListLowStock(context.Context) ([]Product, error) {
	return nil, s.err
}

func (s *stubRepo) Create(_ context.Context, p Product) (Product, error) {
	return p, s.err
}

func (s *stubRepo) Update(context.Context, int64, Product) error {
	return s.err
}

func (s *stubRepo) Deactivate(context.Context, int64) error {
	return s.err
}

func newTestRouter(repo Repository) http.Handler {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(repo))
	r := chi.NewRouter()
	h.MountReadRoutes(r)
	h.MountWriteRoutes(r)
	return r
}

func TestShowRepositoryFailureIsOpaque(t *testing.T) {
	router := newTestRouter(&stubRepo{err: errors.New("pgx: connection refused to db host 10.0.0.5")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/7", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "10.0.0.5")
	require.NotContains(t, rec.Body.String(), "pgx")
}

func TestShowNotFound(t *testing.T) {
	router := newTestRouter(&stubRepo{err: internalShared.ErrNotFound})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/7", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateDuplicateSKUIsConflict(t *testing.T) {
	router := newTestRouter(&stubRepo{err: ErrSKUTaken})

	body := `{"name":"Beans","sku":"SKU-1","price":10,"cost_price":5,"category_id":1,"supplier_id":1}`
	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeactivateRepositoryFailureIsOpaque(t *testing.T) {
	router := newTestRouter(&stubRepo{err: errors.New("write: broken pipe")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/products/7", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "broken pipe")
}
