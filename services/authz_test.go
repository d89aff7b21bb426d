package services

import (
	"testing"

	"github.com/Yernar11/sportmate/models"
)

func TestCan_AdminMayDoAnything(t *testing.T) {
	admin := &models.User{ID: 1, Role: models.RoleAdmin}
	event := &models.Event{ID: 5, HostID: 99}

	actions := []Action{
		ActionRecordMatch, ActionManageMatchmaking, ActionAdjustCredit,
		ActionViewCreditHistory, ActionManageEvent, ActionReportNoShow,
	}
	for _, action := range actions {
		if !Can(admin, action, Resource{Event: event, TargetUserID: 42}) {
			t.Errorf("admin denied %q", action)
		}
	}
}

func TestCan_HostActionsRequireOwnEvent(t *testing.T) {
	host := &models.User{ID: 7, Role: models.RoleHost}
	own := &models.Event{ID: 1, HostID: 7}
	foreign := &models.Event{ID: 2, HostID: 8}

	for _, action := range []Action{ActionRecordMatch, ActionManageMatchmaking, ActionManageEvent, ActionReportNoShow} {
		if !Can(host, action, Resource{Event: own}) {
			t.Errorf("host denied %q on their own event", action)
		}
		if Can(host, action, Resource{Event: foreign}) {
			t.Errorf("host allowed %q on someone else's event", action)
		}
		if Can(host, action, Resource{}) {
			t.Errorf("host allowed %q with no event in scope", action)
		}
	}
}

func TestCan_CreditHistoryIsSelfOnly(t *testing.T) {
	player := &models.User{ID: 3, Role: models.RolePlayer}

	if !Can(player, ActionViewCreditHistory, Resource{TargetUserID: 3}) {
		t.Error("player denied their own credit history")
	}
	if Can(player, ActionViewCreditHistory, Resource{TargetUserID: 4}) {
		t.Error("player allowed another user's credit history")
	}
}

func TestCan_CreditAdjustmentIsAdminOnly(t *testing.T) {
	host := &models.User{ID: 7, Role: models.RoleHost}
	player := &models.User{ID: 3, Role: models.RolePlayer}

	if Can(host, ActionAdjustCredit, Resource{TargetUserID: 3}) {
		t.Error("host allowed manual credit adjustment")
	}
	if Can(player, ActionAdjustCredit, Resource{TargetUserID: 3}) {
		t.Error("player allowed manual credit adjustment")
	}
}

func TestCan_NilActorDeniedEverything(t *testing.T) {
	if Can(nil, ActionManageEvent, Resource{Event: &models.Event{HostID: 1}}) {
		t.Error("nil actor should always be denied")
	}
}

func TestCan_UnknownActionDenied(t *testing.T) {
	player := &models.User{ID: 3, Role: models.RolePlayer}
	if Can(player, "event:explode", Resource{}) {
		t.Error("unknown action should be denied")
	}
}
