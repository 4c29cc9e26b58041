package domain

import "errors"

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrAgentNotFound      = errors.New("agent not found")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrRunInProgress      = errors.New("a run is already in progress for this session")
	ErrTurnCancelled      = errors.New("turn cancelled")
	ErrBudgetExceeded     = errors.New("daily spend cap reached")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrToolUnavailable    = errors.New("tool unavailable")
)
