package http

import (
	"net/http"

	"saldo/internal/core"
	"saldo/internal/ledger"
)

type categoryRequest struct {
	Name string               `json:"name"`
	Type core.TransactionType `json:"type"`
}

type categoryPatchRequest struct {
	Name *string               `json:"name"`
	Type *core.TransactionType `json:"type"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.ledger.Categories())
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	cat, ok := s.ledger.Category(id)
	if !ok {
		respondDomainError(w, r, &core.NotFoundError{Kind: "category", ID: id})
		return
	}
	respondJSON(w, http.StatusOK, cat)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cat, err := s.ledger.AddCategory(r.Context(), req.Name, req.Type)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, cat)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cat, err := s.ledger.UpdateCategory(r.Context(), r.PathValue("id"), ledger.CategoryPatch{
		Name: req.Name,
		Type: req.Type,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	s.invalidateReports()
	respondJSON(w, http.StatusOK, cat)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		respondDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
