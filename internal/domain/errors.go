package domain

import "errors"

var (
	// ErrInvalidTransition is returned when a session is mutated outside the
	// Loading -> Active -> Finished order, e.g. submitting twice for one
	// question or after the session finished.
	ErrInvalidTransition = errors.New("invalid session state transition")
	// ErrEmptyCatalog indicates a quiz was requested with zero birds available.
	ErrEmptyCatalog = errors.New("bird catalog is empty")
	// ErrInvalidConfig indicates an unknown enum value or a non-positive time limit.
	ErrInvalidConfig = errors.New("invalid game config")
	// ErrBirdNotFound indicates the requested bird ID does not exist.
	ErrBirdNotFound = errors.New("bird not found")
	// ErrUserNotFound indicates the requested user ID does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrGameNotFound indicates the requested game ID does not exist.
	ErrGameNotFound = errors.New("game not found")
	// ErrUsernameRequired is returned on login with a blank username.
	ErrUsernameRequired = errors.New("username is required")
)
