package handlers

import (
	"net/http"

	"github.com/Yernar11/sportmate/models"
	"github.com/Yernar11/sportmate/services"
)

type CreditHandler struct {
	creditService services.CreditService
}

func NewCreditHandler(cs services.CreditService) *CreditHandler {
	return &CreditHandler{creditService: cs}
}

// GetRestrictions handles GET /users/{userID}/restrictions.
func (h *CreditHandler) GetRestrictions(w http.ResponseWriter, r *http.Request) {
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	restrictions, err := h.creditService.GetRestrictions(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"restrictions": restrictions}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// History handles GET /users/{userID}/credit-history. Users see their own
// ledger; admins see anyone's, for dispute resolution.
func (h *CreditHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if !services.Can(actor, services.ActionViewCreditHistory, services.Resource{TargetUserID: userID}) {
		forbiddenResponse(w, r, "cannot view another user's credit history")
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	entries, err := h.creditService.History(r.Context(), userID, limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"entries": entries}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// AdjustScore handles POST /admin/users/{userID}/credit-adjustments.
func (h *CreditHandler) AdjustScore(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}
	if actor.Role != models.RoleAdmin {
		forbiddenResponse(w, r, "admin privileges required to adjust credit scores")
		return
	}

	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Amount      int    `json:"amount"`
		Description string `json:"description"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entry, err := h.creditService.ApplyManualAdjustment(r.Context(), userID, actor.ID, input.Amount, input.Description)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"entry": entry}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RateUser handles POST /users/{userID}/good-rating: a positive peer review
// credits the target's reputation.
func (h *CreditHandler) RateUser(w http.ResponseWriter, r *http.Request) {
	if _, err := actorFromContext(r); err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		EventID *int `json:"event_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entry, err := h.creditService.ApplyGoodRatingBonus(r.Context(), userID, input.EventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"entry": entry}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
