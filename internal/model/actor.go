package model

import "github.com/google/uuid"

// Actor is the identity performing an action, supplied explicitly to every
// authorization and lifecycle call instead of being read from ambient session
// state. Anonymous sessions carry the sentinel actor (nil UserID).
type Actor struct {
	UserID   *uuid.UUID
	RoleID   *uuid.UUID
	RoleName string
}

// Anonymous reports whether the actor is the unauthenticated sentinel
func (a Actor) Anonymous() bool {
	return a.UserID == nil
}

// AnonymousActor returns the sentinel actor for unauthenticated sessions
func AnonymousActor() Actor {
	return Actor{RoleName: RoleAnonymous}
}
