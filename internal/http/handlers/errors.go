package handlers

// Error codes carried in ErrorResponse.Code. Clients branch on these; the
// human message may change.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeValidation       = "validation_error"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	// Endpoint specific
	ErrCodeChatFailed    = "chat_failed"
	ErrCodeInvalidAction = "invalid_action"
	ErrCodeReplay        = "idempotent_replay"
)
