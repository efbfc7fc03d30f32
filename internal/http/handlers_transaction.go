package http

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"saldo/internal/core"
	"saldo/internal/ledger"
)

type transactionRequest struct {
	Type        core.TransactionType `json:"type"`
	Amount      decimal.Decimal      `json:"amount"`
	Date        core.Date            `json:"date"`
	CategoryID  string               `json:"categoryId"`
	AccountID   string               `json:"accountId"`
	Description string               `json:"description"`
}

type transactionPatchRequest struct {
	Type        *core.TransactionType `json:"type"`
	Amount      *decimal.Decimal      `json:"amount"`
	Date        *core.Date            `json:"date"`
	CategoryID  *string               `json:"categoryId"`
	AccountID   *string               `json:"accountId"`
	Description *string               `json:"description"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			respondError(w, http.StatusUnprocessableEntity, "limit must be a non-negative integer")
			return
		}
		respondJSON(w, http.StatusOK, s.ledger.RecentTransactions(limit))
		return
	}
	respondJSON(w, http.StatusOK, s.ledger.Transactions())
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	tx, ok := s.ledger.Transaction(id)
	if !ok {
		respondDomainError(w, r, &core.NotFoundError{Kind: "transaction", ID: id})
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := s.ledger.AddTransaction(r.Context(), ledger.TransactionInput{
		Type:        req.Type,
		Amount:      req.Amount,
		Date:        req.Date,
		CategoryID:  req.CategoryID,
		AccountID:   req.AccountID,
		Description: req.Description,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.log.LogTransactionRecorded(r.Context(), ledger.OpCreated, tx.ID, string(tx.Type), tx.Amount.String())
	s.invalidateReports()
	respondJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := s.ledger.UpdateTransaction(r.Context(), r.PathValue("id"), ledger.TransactionPatch{
		Type:        req.Type,
		Amount:      req.Amount,
		Date:        req.Date,
		CategoryID:  req.CategoryID,
		AccountID:   req.AccountID,
		Description: req.Description,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.log.LogTransactionRecorded(r.Context(), ledger.OpUpdated, tx.ID, string(tx.Type), tx.Amount.String())
	s.invalidateReports()
	respondJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.ledger.DeleteTransaction(r.Context(), id); err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.log.LogTransactionRecorded(r.Context(), ledger.OpDeleted, id, "", "")
	s.invalidateReports()
	w.WriteHeader(http.StatusNoContent)
}
