package suppliers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian-pos/internal/masterdata/shared"
	internalShared "github.com/meridian-pos/meridian-pos/internal/shared"
)

type failRepo struct {
	err error
}

func (r *failRepo) List(context.Context, shared.ListFilters) ([]Supplier, int, error) {
	return nil, 0, r.err
}

func (r *failRepo) Get(context.Context, int64) (Supplier, error) {
	return Supplier{}, r.err
}

func (r *failRepo) Create(_ context.Context, s Supplier) (Supplier, error) {
	return s, r.err
}

func (r *failRepo) Update(context.Context, int64, Supplier) error {
	return r.err
}

func (r *failRepo) Deactivate(context.Context, int64) error {
	return r.err
}

func newTestRouter(repo Repository) http.Handler {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(repo))
	r := chi.NewRouter()
	h.MountReadRoutes(r)
	h.MountWriteRoutes(r)
	return r
}

func TestShowRepositoryFailureIsOpaque(t *testing.T) {
	router := newTestRouter(&failRepo{err: errors.New("pgx: connection refused")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/suppliers/4", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "pgx")
}

func TestShowNotFound(t *testing.T) {
	router := newTestRouter(&failRepo{err: internalShared.ErrNotFound})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/suppliers/4", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}
