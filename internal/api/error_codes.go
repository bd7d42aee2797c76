// internal/api/error_codes.go
package api

// API error code constants.
const (
	// Generic errors
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"
	ErrorConflict      = "CONFLICT"
	ErrorForbidden     = "FORBIDDEN"

	// Session errors
	ErrorSessionNotFound = "SESSION_NOT_FOUND"
	ErrorSessionBusy     = "SESSION_BUSY"
	ErrorMessageInvalid  = "MESSAGE_INVALID"

	// Personality errors
	ErrorPersonalityInvalid = "PERSONALITY_INVALID"

	// Account errors
	ErrorInsufficientCredits = "INSUFFICIENT_CREDITS"
	ErrorAPIKeyMissing       = "API_KEY_MISSING"
	ErrorAIUnavailable       = "AI_UNAVAILABLE"

	// Quiz errors
	ErrorQuizSubmissionInvalid = "QUIZ_SUBMISSION_INVALID"

	// Tips errors
	ErrorTipCategoryNotFound = "TIP_CATEGORY_NOT_FOUND"
)
