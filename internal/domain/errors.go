package domain

import "errors"

var (
	// ErrNoActor indicates an actor-scoped operation was called without an actor.
	ErrNoActor = errors.New("no current actor")

	// ErrMissingIdentifier indicates a required identifier was empty.
	ErrMissingIdentifier = errors.New("missing identifier")

	// ErrApplicationNotFound indicates no application matches the id.
	ErrApplicationNotFound = errors.New("application not found")

	// ErrUserNotFound indicates no user matches the id.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidTransition indicates a stage operation was called out of order.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidRole indicates a role outside the closed role set.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidDecision indicates a decision value outside its closed set.
	ErrInvalidDecision = errors.New("invalid decision")

	// ErrInvalidStatus indicates a status filter outside the workflow stages.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrEmptyComment indicates a comment body with no visible characters.
	ErrEmptyComment = errors.New("comment message is empty")

	// ErrBusy indicates the application stayed locked by another writer too long.
	ErrBusy = errors.New("application is being updated, retry")
)
