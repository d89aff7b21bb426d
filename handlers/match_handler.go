package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Yernar11/sportmate/services"
)

type MatchHandler struct {
	matchService       services.MatchService
	eventService       services.EventService
	matchmakingService services.MatchmakingService
	logger             *slog.Logger
}

func NewMatchHandler(
	ms services.MatchService,
	es services.EventService,
	mms services.MatchmakingService,
	logger *slog.Logger,
) *MatchHandler {
	return &MatchHandler{
		matchService:       ms,
		eventService:       es,
		matchmakingService: mms,
		logger:             logger,
	}
}

// RecordMatch handles POST /events/{eventID}/matches. Host only.
func (h *MatchHandler) RecordMatch(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.GetEvent(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if !services.Can(actor, services.ActionRecordMatch, services.Resource{Event: event}) {
		forbiddenResponse(w, r, "only the event host can record match results")
		return
	}

	var input services.RecordMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.EventID = eventID
	input.RecordedByHostID = actor.ID

	record, err := h.matchService.RecordMatch(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	// Best effort: the proposed match for this pair, if any, moves to
	// finalized so re-runs of matchmaking skip it.
	if err := h.matchmakingService.FinalizeForPair(r.Context(), eventID, record.Player1ID, record.Player2ID); err != nil {
		h.logger.Error("failed to finalize proposed match",
			slog.Int("event_id", eventID),
			slog.Any("error", err))
	}

	response := jsonResponse{"match": record}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	record, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"match": record}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ListEventMatches(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	records, err := h.matchService.ListEventMatches(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"matches": records}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
