package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"saldo/internal/core"
	"saldo/internal/ledger"
)

type accountRequest struct {
	Name    string           `json:"name"`
	Type    core.AccountType `json:"type"`
	Balance decimal.Decimal  `json:"balance"`
}

type accountPatchRequest struct {
	Name    *string           `json:"name"`
	Type    *core.AccountType `json:"type"`
	Balance *decimal.Decimal  `json:"balance"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.ledger.Accounts())
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	acc, ok := s.ledger.Account(id)
	if !ok {
		respondDomainError(w, r, &core.NotFoundError{Kind: "account", ID: id})
		return
	}
	respondJSON(w, http.StatusOK, acc)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	acc, err := s.ledger.AddAccount(r.Context(), req.Name, req.Type, req.Balance)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.invalidateReports()
	respondJSON(w, http.StatusCreated, acc)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	acc, err := s.ledger.UpdateAccount(r.Context(), r.PathValue("id"), ledger.AccountPatch{
		Name:    req.Name,
		Type:    req.Type,
		Balance: req.Balance,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.invalidateReports()
	respondJSON(w, http.StatusOK, acc)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteAccount(r.Context(), r.PathValue("id")); err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.invalidateReports()
	w.WriteHeader(http.StatusNoContent)
}
