package reports

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/sales-summary", h.SalesSummary)
	r.Get("/reports/top-products", h.TopProducts)
	r.Get("/reports/stock-valuation", h.StockValuation)
	r.Get("/reports/low-stock", h.LowStock)
}

// parseRange reads from/to query params, defaulting to the last 30 days.
func parseRange(r *http.Request) (time.Time, time.Time, bool) {
	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return from, to, false
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return from, to, false
		}
		to = t.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, true
}

func (h *Handler) SalesSummary(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseRange(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid date, expected YYYY-MM-DD")
		return
	}
	rows, err := h.service.SalesSummary(r.Context(), from, to)
	if err != nil {
		h.logger.Error("sales summary failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		writeCSV(w, csvFileName("sales_summary", from.Format(dateLayout), to.Format(dateLayout)))
		if err := WriteSalesSummaryCSV(w, rows); err != nil {
			h.logger.Error("sales summary csv failed", slog.Any("error", err))
		}
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"from": from.Format(dateLayout), "to": to.Format(dateLayout), "days": rows,
	})
}

func (h *Handler) TopProducts(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseRange(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid date, expected YYYY-MM-DD")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.service.TopProducts(r.Context(), from, to, limit)
	if err != nil {
		h.logger.Error("top products failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		writeCSV(w, csvFileName("top_products", from.Format(dateLayout), to.Format(dateLayout)))
		if err := WriteTopProductsCSV(w, rows); err != nil {
			h.logger.Error("top products csv failed", slog.Any("error", err))
		}
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": rows})
}

func (h *Handler) StockValuation(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.StockValuation(r.Context())
	if err != nil {
		h.logger.Error("stock valuation failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) LowStock(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.LowStock(r.Context())
	if err != nil {
		h.logger.Error("low stock report failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		writeCSV(w, csvFileName("low_stock", "", ""))
		if err := WriteLowStockCSV(w, rows); err != nil {
			h.logger.Error("low stock csv failed", slog.Any("error", err))
		}
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": rows})
}

func writeCSV(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
}
