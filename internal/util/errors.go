package util

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailRegistered   = errors.New("email already registered")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrScenarioNotFound  = errors.New("scenario not found")
	ErrScenarioInactive  = errors.New("scenario is not active")
	ErrAttemptNotFound   = errors.New("attempt not found")
	ErrAttemptCompleted  = errors.New("attempt already completed")
	ErrInvalidProgress   = errors.New("progress must be between 0 and 100")
	ErrInvalidScore      = errors.New("score must be between 0 and 100")
	ErrInvalidDifficulty = errors.New("difficulty must be beginner, intermediate or advanced")
)
