package model

import "errors"

// Status is the appointment workflow state.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusApproved  Status = "Approved"
	StatusRejected  Status = "Rejected"
	StatusCancelled Status = "Cancelled"
	StatusCompleted Status = "Completed"
)

var ErrInvalidStatus = errors.New("invalid status value")

// Statuses lists every workflow state, in lifecycle order.
func Statuses() []Status {
	return []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted}
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// AdminUpdatable reports whether s may replace a Pending status: the
// staff path can only approve or reject a pending appointment.
func AdminUpdatable(s Status) bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransition applies the workflow rule for replacing current with
// next. The only restriction is on moves away from Pending; every
// other transition, including setting the same value again, is allowed.
// Callers must have validated next with ValidStatus first.
func CanTransition(current, next Status) bool {
	if current == StatusPending && next != StatusPending {
		return AdminUpdatable(next)
	}
	return true
}
