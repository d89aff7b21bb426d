package handlers

import (
	"net/http"

	"github.com/Yernar11/sportmate/models"
	"github.com/Yernar11/sportmate/services"
	"github.com/go-chi/chi/v5"
)

type MatchmakingHandler struct {
	matchmakingService services.MatchmakingService
	eventService       services.EventService
}

func NewMatchmakingHandler(mms services.MatchmakingService, es services.EventService) *MatchmakingHandler {
	return &MatchmakingHandler{
		matchmakingService: mms,
		eventService:       es,
	}
}

// requireHost loads the event and checks the matchmaking capability in one
// place; every mutating endpoint below goes through it.
func (h *MatchmakingHandler) requireHost(w http.ResponseWriter, r *http.Request) (*models.Event, bool) {
	actor, err := actorFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return nil, false
	}

	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return nil, false
	}

	event, err := h.eventService.GetEvent(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return nil, false
	}
	if !services.Can(actor, services.ActionManageMatchmaking, services.Resource{Event: event}) {
		forbiddenResponse(w, r, "only the event host can manage matchmaking")
		return nil, false
	}
	return event, true
}

func (h *MatchmakingHandler) GenerateMatches(w http.ResponseWriter, r *http.Request) {
	event, ok := h.requireHost(w, r)
	if !ok {
		return
	}

	matches, err := h.matchmakingService.CreateFairMatches(r.Context(), event.ID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"matches": matches}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchmakingHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.matchmakingService.ListProposedMatches(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"matches": matches}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchmakingHandler) OverridePlayer(w http.ResponseWriter, r *http.Request) {
	event, ok := h.requireHost(w, r)
	if !ok {
		return
	}
	matchID := chi.URLParam(r, "matchID")

	var input struct {
		ReplacePlayerID int `json:"replace_player_id"`
		NewPlayerID     int `json:"new_player_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchmakingService.OverridePlayer(r.Context(), event.ID, matchID, input.ReplacePlayerID, input.NewPlayerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"match": match}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchmakingHandler) ToggleLock(w http.ResponseWriter, r *http.Request) {
	event, ok := h.requireHost(w, r)
	if !ok {
		return
	}
	matchID := chi.URLParam(r, "matchID")

	match, err := h.matchmakingService.ToggleMatchLock(r.Context(), event.ID, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"match": match}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchmakingHandler) AssignCourt(w http.ResponseWriter, r *http.Request) {
	event, ok := h.requireHost(w, r)
	if !ok {
		return
	}
	matchID := chi.URLParam(r, "matchID")

	var input struct {
		CourtID int `json:"court_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchmakingService.AssignCourt(r.Context(), event.ID, matchID, input.CourtID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"match": match}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
