package auth

import (
	"github.com/yasinhessnawi1/HeartRisk_Backend/internal/constants"
)

// Action names an operation subject to authorization.
type Action string

// Actions known to the capability table.
const (
	ActionPredict            Action = "predict"
	ActionPredictionSave     Action = "prediction:save"
	ActionPredictionOwnRead  Action = "prediction:own:read"
	ActionPredictionOwnWrite Action = "prediction:own:write"
	ActionPredictionAnyRead  Action = "prediction:any:read"
	ActionPredictionAnyWrite Action = "prediction:any:write"
	ActionPredictionExport   Action = "prediction:export"
	ActionUserManage         Action = "user:manage"
	ActionDashboardView      Action = "dashboard:view"
)

// audience is who an action is granted to.
type audience int

const (
	audienceAnyone audience = iota
	audienceAuthenticated
	audienceAdmin
)

var capabilities = map[Action]audience{
	ActionPredict:            audienceAnyone,
	ActionPredictionSave:     audienceAuthenticated,
	ActionPredictionOwnRead:  audienceAuthenticated,
	ActionPredictionOwnWrite: audienceAuthenticated,
	ActionPredictionAnyRead:  audienceAdmin,
	ActionPredictionAnyWrite: audienceAdmin,
	ActionPredictionExport:   audienceAdmin,
	ActionUserManage:         audienceAdmin,
	ActionDashboardView:      audienceAdmin,
}

// Identity is the caller of a request. The zero value is an anonymous caller.
type Identity struct {
	UserID        int64
	Username      string
	Email         string
	Role          string
	Authenticated bool
}

// IsAdmin reports whether the caller is an authenticated administrator.
func (id Identity) IsAdmin() bool {
	return id.Authenticated && id.Role == constants.RoleAdmin
}

// Authorize reports whether id may perform action. Unknown actions are denied.
func Authorize(id Identity, action Action) bool {
	aud, ok := capabilities[action]
	if !ok {
		return false
	}

	switch aud {
	case audienceAnyone:
		return true
	case audienceAuthenticated:
		return id.Authenticated && id.UserID > 0
	case audienceAdmin:
		return id.IsAdmin()
	default:
		return false
	}
}

// AuthorizeOwned authorizes an action on a resource owned by ownerID: the
// owner needs ownAction, anyone else needs anyAction.
func AuthorizeOwned(id Identity, ownAction, anyAction Action, ownerID int64) bool {
	if id.Authenticated && id.UserID == ownerID && Authorize(id, ownAction) {
		return true
	}
	return Authorize(id, anyAction)
}
