package services

import "errors"

// Domain errors surfaced to handlers. Each maps to a specific user-facing
// rejection; none is fatal to the process.
var (
	// ErrNotFound is returned when an entity lookup misses.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is returned when registration reuses an email.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredential is returned when a password does not match.
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrNotActivated is returned when an INACTIVE account attempts login.
	ErrNotActivated = errors.New("account not activated")

	// ErrInvalidRole is returned when a role value is outside the role set.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidStatus is returned when a task status is outside
	// {TODO, IN_PROGRESS, DONE}.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrLeaderNotFound is returned when a username does not resolve to a
	// team leader.
	ErrLeaderNotFound = errors.New("leader not found")

	// ErrAssigneeNotFound is returned when a task assignee email does not
	// resolve.
	ErrAssigneeNotFound = errors.New("assignee not found")

	// ErrEmptyContent is returned for blank comments.
	ErrEmptyContent = errors.New("content is empty")

	// ErrInvalidFilename is returned when an upload name has no usable
	// extension after sanitization.
	ErrInvalidFilename = errors.New("invalid file name")

	// ErrDisallowedExtension is returned when an upload extension is
	// outside the configured allow-list.
	ErrDisallowedExtension = errors.New("file extension not allowed")
)
