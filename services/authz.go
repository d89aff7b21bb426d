package services

import "github.com/Yernar11/sportmate/models"

// Action names a capability a caller may or may not hold on a resource.
type Action string

const (
	ActionRecordMatch       Action = "match:record"
	ActionManageMatchmaking Action = "matchmaking:manage"
	ActionAdjustCredit      Action = "credit:adjust"
	ActionViewCreditHistory Action = "credit:view_history"
	ActionManageEvent       Action = "event:manage"
	ActionReportNoShow      Action = "event:report_no_show"
)

// Resource carries the relationship facts a capability decision needs.
// Only the fields relevant to the action have to be set.
type Resource struct {
	Event        *models.Event
	TargetUserID int
}

// Can decides whether the actor may perform the action on the resource.
// Decisions compose role facts (admin, host) with relationship facts
// (is the actor the host of this event, is the target the actor themselves);
// nothing here touches persistence.
func Can(actor *models.User, action Action, res Resource) bool {
	if actor == nil {
		return false
	}
	if actor.Role == models.RoleAdmin {
		return true
	}

	switch action {
	case ActionRecordMatch, ActionManageMatchmaking, ActionManageEvent, ActionReportNoShow:
		return res.Event != nil && res.Event.HostID == actor.ID
	case ActionViewCreditHistory:
		return res.TargetUserID == actor.ID
	case ActionAdjustCredit:
		return false // admin only
	default:
		return false
	}
}
