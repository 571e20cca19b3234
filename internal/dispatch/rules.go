package dispatch

import "daurulang-backend/internal/models"

// Aksi yang dijaga role. Dicek lewat fungsi CanPerform, bukan
// ditanam di middleware, biar gampang dites dan dipakai ulang.
const (
	ActionCreate   = "request:create"
	ActionNearby   = "request:nearby"
	ActionClaim    = "request:claim"
	ActionStart    = "request:start"
	ActionComplete = "request:complete"
	ActionCancel   = "request:cancel"
	ActionWithdraw = "wallet:withdraw"
)

// CanPerform menjawab: role ini boleh melakukan aksi ini atau tidak.
// Admin sengaja TIDAK dapat akses aksi lifecycle: admin mengelola
// tarif & dashboard, bukan ikut main jemput-menjemput.
func CanPerform(roleID uint, action string) bool {
	switch action {
	case ActionCreate, ActionWithdraw:
		return roleID == models.RoleRequester
	case ActionNearby, ActionClaim, ActionStart, ActionComplete:
		return roleID == models.RoleCollector
	case ActionCancel:
		return roleID == models.RoleRequester || roleID == models.RoleCollector
	default:
		return false
	}
}

// TransitionAllowed adalah state machine murni:
// PENDING -> ASSIGNED -> IN_PROGRESS -> COMPLETED
// PENDING -> CANCELLED, ASSIGNED -> CANCELLED
// COMPLETED dan CANCELLED final, tidak ada jalan keluar.
func TransitionAllowed(current, target string) bool {
	switch current {
	case models.StatusPending:
		return target == models.StatusAssigned || target == models.StatusCancelled
	case models.StatusAssigned:
		return target == models.StatusInProgress || target == models.StatusCancelled
	case models.StatusInProgress:
		return target == models.StatusCompleted
	default:
		return false
	}
}

// CancelAllowed: dari PENDING hanya requester; dari ASSIGNED boleh
// requester maupun kolektor yang pegang request-nya.
func CancelAllowed(status string, isRequester, isCollector bool) bool {
	switch status {
	case models.StatusPending:
		return isRequester
	case models.StatusAssigned:
		return isRequester || isCollector
	default:
		return false
	}
}
