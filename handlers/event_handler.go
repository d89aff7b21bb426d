package handlers

import (
	"context"
	"net/http"

	"github.com/Yernar11/sportmate/models"
	"github.com/Yernar11/sportmate/services"
)

type EventHandler struct {
	eventService services.EventService
}

func NewEventHandler(es services.EventService) *EventHandler {
	return &EventHandler{eventService: es}
}

func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.CreateEventInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.HostID = actor.ID

	event, err := h.eventService.CreateEvent(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"event": event}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
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

	response := jsonResponse{"event": event}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	status := models.EventStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = models.EventPublished
	}
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	events, err := h.eventService.ListEvents(r.Context(), status, limit, offset)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"events": events}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// requireManage loads the event and checks the manage capability.
func (h *EventHandler) requireManage(w http.ResponseWriter, r *http.Request) (*models.Event, *models.User, bool) {
	actor, err := actorFromContext(r)
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return nil, nil, false
	}

	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return nil, nil, false
	}

	event, err := h.eventService.GetEvent(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return nil, nil, false
	}
	if !services.Can(actor, services.ActionManageEvent, services.Resource{Event: event}) {
		forbiddenResponse(w, r, "only the event host can manage this event")
		return nil, nil, false
	}
	return event, actor, true
}

func (h *EventHandler) PublishEvent(w http.ResponseWriter, r *http.Request) {
	event, _, ok := h.requireManage(w, r)
	if !ok {
		return
	}

	updated, err := h.eventService.PublishEvent(r.Context(), event.ID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeEvent(w, r, updated)
}

func (h *EventHandler) StartEvent(w http.ResponseWriter, r *http.Request) {
	event, _, ok := h.requireManage(w, r)
	if !ok {
		return
	}

	updated, matches, err := h.eventService.StartEvent(r.Context(), event.ID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"event": updated, "matches": matches}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) CompleteEvent(w http.ResponseWriter, r *http.Request) {
	event, _, ok := h.requireManage(w, r)
	if !ok {
		return
	}

	updated, err := h.eventService.CompleteEvent(r.Context(), event.ID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeEvent(w, r, updated)
}

func (h *EventHandler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	event, _, ok := h.requireManage(w, r)
	if !ok {
		return
	}

	updated, err := h.eventService.CancelEvent(r.Context(), event.ID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeEvent(w, r, updated)
}

func (h *EventHandler) JoinEvent(w http.ResponseWriter, r *http.Request) {
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

	participant, err := h.eventService.JoinEvent(r.Context(), eventID, actor.ID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"participant": participant}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) CancelParticipation(w http.ResponseWriter, r *http.Request) {
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

	participant, err := h.eventService.CancelParticipation(r.Context(), eventID, actor.ID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"participant": participant}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) ConfirmParticipant(w http.ResponseWriter, r *http.Request) {
	h.participantAction(w, r, h.eventService.ConfirmParticipant)
}

func (h *EventHandler) CheckInParticipant(w http.ResponseWriter, r *http.Request) {
	h.participantAction(w, r, h.eventService.CheckInParticipant)
}

func (h *EventHandler) ReportNoShow(w http.ResponseWriter, r *http.Request) {
	event, actor, ok := h.requireManage(w, r)
	if !ok {
		return
	}

	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.eventService.ReportNoShow(r.Context(), event.ID, userID, actor.ID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"participant": participant}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participants, err := h.eventService.ListParticipants(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"participants": participants}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) participantAction(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, eventID, userID int) (*models.EventParticipant, error),
) {
	event, _, ok := h.requireManage(w, r)
	if !ok {
		return
	}

	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := action(r.Context(), event.ID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"participant": participant}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *EventHandler) writeEvent(w http.ResponseWriter, r *http.Request, event *models.Event) {
	response := jsonResponse{"event": event}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
