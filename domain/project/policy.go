package project

import (
	"slices"
	"time"

	pkgerrors "agentdev-backend/pkg/errors"
)

// CanRead allows the owner and any team member. A nil record is unreadable.
func CanRead(p *Project, callerID string) bool {
	if p == nil {
		return false
	}
	return p.UserID == callerID || slices.Contains(p.TeamMembers, callerID)
}

// CanWrite allows only the owner. Team members are read-only.
func CanWrite(p *Project, callerID string) bool {
	if p == nil {
		return false
	}
	return p.UserID == callerID
}

// AuthorizeRead returns a FORBIDDEN error when callerID may not read p.
func AuthorizeRead(p *Project, callerID string) error {
	if CanRead(p, callerID) {
		return nil
	}
	return denied()
}

// AuthorizeWrite guards update, delete and lifecycle transitions.
func AuthorizeWrite(p *Project, callerID string) error {
	if CanWrite(p, callerID) {
		return nil
	}
	return denied()
}

func denied() error {
	return pkgerrors.NewForbiddenError("access denied").WithCode("PROJECT_ACCESS_DENIED").WithCause(ErrAccessDenied)
}

// StartChanges marks a project active. Any current status may be started.
func StartChanges(now time.Time) Changes {
	return Changes{
		FieldStatus:    string(StatusActive),
		FieldStartedAt: now,
	}
}

// CompleteChanges marks a project completed and forces progress to 100.
func CompleteChanges(now time.Time) Changes {
	return Changes{
		FieldStatus:             string(StatusCompleted),
		FieldCompletedAt:        now,
		FieldProgressPercentage: 100.0,
	}
}
