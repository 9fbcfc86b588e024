package assistance

import "github.com/pendampingan/assistance-backend/pkg/models"

// Transition guards for the engagement state machine:
//
//	pending -> negotiating -> agreed -> in_progress -> completed
//	pending/negotiating    -> cancelled | rejected
//
// Guards only look at the current status; every caller re-reads the request
// before evaluating them and applies the transition with a version guard.

// offerAllowed reports whether a price offer may be sent.
func offerAllowed(st models.RequestStatus) bool {
	return st == models.StatusPending || st == models.StatusNegotiating
}

// chatAllowed reports whether plain text and file messages may be sent.
// Parties keep chatting through representation; terminal states are closed.
func chatAllowed(st models.RequestStatus) bool {
	switch st {
	case models.StatusPending, models.StatusNegotiating, models.StatusAgreed, models.StatusInProgress:
		return true
	}
	return false
}

// acceptAllowed reports whether an outstanding offer may be accepted.
func acceptAllowed(st models.RequestStatus) bool {
	return st == models.StatusNegotiating
}

// paymentAllowed reports whether payment may be confirmed.
func paymentAllowed(st models.RequestStatus) bool {
	return st == models.StatusAgreed
}

// stageAllowed reports whether the case stage may change.
func stageAllowed(st models.RequestStatus) bool {
	return st == models.StatusInProgress
}

// closeAllowed reports whether the request may still be cancelled or
// rejected. Once a price is agreed, early termination needs the dispute
// process instead.
func closeAllowed(st models.RequestStatus) bool {
	return st == models.StatusPending || st == models.StatusNegotiating
}

// identityAllowed reports whether the client may (re)submit the identity
// snapshot. After acceptance the snapshot is frozen with the engagement.
func identityAllowed(st models.RequestStatus) bool {
	return st == models.StatusPending || st == models.StatusNegotiating
}
