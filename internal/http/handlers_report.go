package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"saldo/internal/core"
)

const defaultReportMonths = 6

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.cachedReport(w, r, "summary", func() (any, error) {
		return map[string]any{
			"totalBalance":       s.ledger.TotalBalance(),
			"totalIncome":        s.ledger.TotalIncome(),
			"totalExpense":       s.ledger.TotalExpense(),
			"recentTransactions": s.ledger.RecentTransactions(5),
		}, nil
	})
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	months := defaultReportMonths
	if v := r.URL.Query().Get("months"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 60 {
			respondError(w, http.StatusUnprocessableEntity, "months must be between 1 and 60")
			return
		}
		months = m
	}

	s.cachedReport(w, r, fmt.Sprintf("monthly:%d", months), func() (any, error) {
		return s.ledger.MonthlyOverview(months), nil
	})
}

func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	tt := core.Expense
	if v := r.URL.Query().Get("type"); v != "" {
		switch core.TransactionType(v) {
		case core.Income, core.Expense:
			tt = core.TransactionType(v)
		default:
			respondError(w, http.StatusUnprocessableEntity, "type must be income or expense")
			return
		}
	}

	s.cachedReport(w, r, "categories:"+string(tt), func() (any, error) {
		return s.ledger.CategoryTotals(tt), nil
	})
}

// cachedReport serves a report from the LRU when fresh, otherwise builds
// and stores it. Keys carry a generation counter so a single bump on
// mutation invalidates every cached report at once.
func (s *Server) cachedReport(w http.ResponseWriter, r *http.Request, key string, build func() (any, error)) {
	genKey := fmt.Sprintf("g%d:%s", s.reportGen.Load(), key)

	if cached, ok := s.reportsCache.Get(genKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(cached)
		return
	}

	body, err := build()
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	raw, err := json.Marshal(body)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to marshal report", "error", err, "key", key)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.reportsCache.Set(genKey, raw)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// invalidateReports drops all cached reports. Called after every
// mutation that can change an aggregate.
func (s *Server) invalidateReports() {
	s.reportGen.Add(1)
}
