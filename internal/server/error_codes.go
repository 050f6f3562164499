package server

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument  = 1000
	ErrCodeInvalidJSON      = 1001
	ErrCodeRequestTooLarge  = 1002
	ErrCodeInvalidQuery     = 1003
	ErrCodeInvalidID        = 1004
	ErrCodeInvalidStatus    = 1005
	ErrCodeInvalidPriority  = 1007
	ErrCodeMissingRequired  = 1009
	ErrCodeInvalidTime      = 1010
	ErrCodeInvalidProject   = 1015
	ErrCodeInvalidTab       = 1016
	ErrCodeImmutableField   = 1017
	ErrCodeInvalidMediaType = 1018
	ErrCodeInvalidName      = 1019

	// Domain state (2xxx)
	ErrCodeTaskNotFound      = 2001
	ErrCodeUserNotFound      = 2005
	ErrCodeBlobNotFound      = 2006
	ErrCodeTaskIDExists      = 2101
	ErrCodeConflict          = 2102
	ErrCodeInvalidTransition = 2103

	// Auth & limits (3xxx)
	ErrCodeUnauthorized      = 3001
	ErrCodeForbidden         = 3002
	ErrCodeResourceExhausted = 3003
	ErrCodePermissionDenied  = 3004

	// Internal/system (4xxx)
	ErrCodeInternal     = 4001
	ErrCodeStoreFailure = 4002
	ErrCodeBlobFailure  = 4003
)

func defaultErrorCodeByStatus(status int) int {
	switch status {
	case 400:
		return ErrCodeInvalidArgument
	case 401:
		return ErrCodeUnauthorized
	case 403:
		return ErrCodeForbidden
	case 404:
		return ErrCodeTaskNotFound
	case 409:
		return ErrCodeConflict
	case 413:
		return ErrCodeRequestTooLarge
	case 429:
		return ErrCodeResourceExhausted
	case 500:
		return ErrCodeInternal
	default:
		return 0
	}
}
