// Package guard resolves the caller's identity into authorization
// decisions for submission and assignment actions.
package guard

import "strings"

// SessionState models the three-valued auth bootstrap: the identity
// provider resolves asynchronously, so "still resolving" must stay
// distinguishable from "resolved, nobody signed in".
type SessionState int

// Session states.
const (
	SessionResolving SessionState = iota
	SessionUnauthenticated
	SessionAuthenticated
)

// Actor is the authenticated identity plus role performing an action.
type Actor struct {
	ID   uint
	Role string
}

// Session carries the resolved auth state. The zero value is Resolving,
// never an implicit "no user".
type Session struct {
	State SessionState
	Actor Actor
}

// Authenticated builds a resolved session for the given actor.
func Authenticated(actor Actor) Session {
	return Session{State: SessionAuthenticated, Actor: actor}
}

// Unauthenticated builds a resolved session with no user.
func Unauthenticated() Session {
	return Session{State: SessionUnauthenticated}
}

// Action names the state transitions and reads the guard gates.
type Action string

// Guarded actions.
const (
	ActionSaveDraft        Action = "submission.save_draft"
	ActionSubmit           Action = "submission.submit"
	ActionEvaluate         Action = "submission.evaluate"
	ActionViewSubmission   Action = "submission.view"
	ActionRunCode          Action = "submission.run"
	ActionAuthorAssignment Action = "assignment.author"
)

// Reason explains a denial. Never silent: callers branch on it for
// correct redirect behavior.
type Reason string

// Denial reasons.
const (
	ReasonNone             Reason = ""
	ReasonSessionResolving Reason = "session_resolving"
	ReasonUnauthenticated  Reason = "unauthenticated"
	ReasonInsufficientRole Reason = "insufficient_role"
	ReasonNotOwner         Reason = "not_owner"
	ReasonNotFound         Reason = "not_found"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Resource describes the submission or assignment being acted on.
// OwnerID is the student the record belongs to; SubjectAccess reports
// whether a staff actor is assigned to the record's subject, supplied by
// the caller since subject rosters live outside this package.
type Resource struct {
	Exists        bool
	OwnerID       uint
	SubjectAccess bool
}

// roleTable lists which roles may attempt which actions. Ownership and
// subject scoping are checked after the role gate.
var roleTable = map[Action]map[string]struct{}{
	ActionSaveDraft:        {"student": {}},
	ActionSubmit:           {"student": {}},
	ActionRunCode:          {"student": {}},
	ActionEvaluate:         {"teacher": {}, "hod": {}},
	ActionAuthorAssignment: {"teacher": {}, "hod": {}},
	ActionViewSubmission:   {"student": {}, "teacher": {}, "hod": {}},
}

// Authorize gates an action against the session and resource. Students
// act only on their own records; teachers and HODs only within subjects
// they are assigned to.
func Authorize(session Session, action Action, resource Resource) Decision {
	switch session.State {
	case SessionResolving:
		return deny(ReasonSessionResolving)
	case SessionUnauthenticated:
		return deny(ReasonUnauthenticated)
	}

	role := strings.ToLower(strings.TrimSpace(session.Actor.Role))
	allowed, known := roleTable[action]
	if !known {
		return deny(ReasonInsufficientRole)
	}
	if _, ok := allowed[role]; !ok {
		return deny(ReasonInsufficientRole)
	}

	if !resource.Exists {
		return deny(ReasonNotFound)
	}

	if role == "student" {
		if resource.OwnerID != session.Actor.ID {
			return deny(ReasonNotOwner)
		}
		return allow()
	}

	// Staff viewing or grading must be assigned to the subject. Authoring
	// is scoped the same way.
	if !resource.SubjectAccess {
		return deny(ReasonNotOwner)
	}

	return allow()
}
