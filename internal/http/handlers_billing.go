package http

import (
	"net/http"

	"saldo/internal/billing"
)

type checkoutRequest struct {
	Plan  string `json:"plan"`
	Email string `json:"email"`
}

type portalRequest struct {
	Email string `json:"email"`
}

type redirectResponse struct {
	URL string `json:"url"`
}

func (s *Server) handleBillingPlans(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, billing.Plans())
}

func (s *Server) handleBillingCheckout(w http.ResponseWriter, r *http.Request) {
	if s.billing == nil {
		respondError(w, http.StatusServiceUnavailable, "billing is not configured")
		return
	}

	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, ok := billing.PlanByID(req.Plan); !ok {
		respondError(w, http.StatusUnprocessableEntity, "unknown plan: "+req.Plan)
		return
	}
	if req.Email == "" {
		respondError(w, http.StatusUnprocessableEntity, "email is required")
		return
	}

	url, err := s.billing.CreateCheckoutSession(r.Context(), req.Plan, req.Email)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, redirectResponse{URL: url})
}

func (s *Server) handleBillingPortal(w http.ResponseWriter, r *http.Request) {
	if s.billing == nil {
		respondError(w, http.StatusServiceUnavailable, "billing is not configured")
		return
	}

	var req portalRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" {
		respondError(w, http.StatusUnprocessableEntity, "email is required")
		return
	}

	url, err := s.billing.CreatePortalSession(r.Context(), req.Email)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, redirectResponse{URL: url})
}

// handleBillingSubscription reports the caller's subscription state.
// ?refresh=1 bypasses the cache, which is what the checkout return URL
// triggers after a completed payment.
func (s *Server) handleBillingSubscription(w http.ResponseWriter, r *http.Request) {
	if s.billing == nil {
		respondJSON(w, http.StatusOK, billing.SubscriptionStatus{Subscribed: false, Tier: "free"})
		return
	}

	email := r.URL.Query().Get("email")
	if email == "" {
		respondError(w, http.StatusUnprocessableEntity, "email is required")
		return
	}
	refresh := r.URL.Query().Get("refresh") == "1"

	status, err := s.billing.Status(r.Context(), email, refresh)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, status)
}
