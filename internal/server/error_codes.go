package server

const (
	// Validation (1xxx)
	ErrCodeInvalidArgument  = 1000
	ErrCodeInvalidJSON      = 1001
	ErrCodeRequestTooLarge  = 1002
	ErrCodeInvalidQuery     = 1003
	ErrCodeInvalidID        = 1004
	ErrCodeInvalidStatus    = 1005
	ErrCodeInvalidPriority  = 1006
	ErrCodeInvalidScope     = 1007
	ErrCodeMissingRequired  = 1008
	ErrCodeInvalidDueDate   = 1009
	ErrCodeInvalidCommand   = 1010
	ErrCodeMalformedPayload = 1011

	// Domain state (2xxx)
	ErrCodeTaskNotFound   = 2001
	ErrCodeMemberNotFound = 2002
	ErrCodeColumnNotFound = 2003
	ErrCodePrecondition   = 2101
	ErrCodeConflict       = 2102
	ErrCodeMappingExists  = 2103
	ErrCodeNotLinked      = 2104
	ErrCodeSyncConflict   = 2105
	ErrCodeNoCredentials  = 2106
	ErrCodeMemberIDExists = 2107

	// Auth & limits (3xxx)
	ErrCodeUnauthorized      = 3001
	ErrCodeForbidden         = 3002
	ErrCodeResourceExhausted = 3003
	ErrCodeBadSignature      = 3004

	// Internal/system (4xxx)
	ErrCodeInternal            = 4001
	ErrCodeStoreFailure        = 4002
	ErrCodeExternalUnavailable = 4003
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
	case 429:
		return ErrCodeResourceExhausted
	case 500:
		return ErrCodeInternal
	case 502:
		return ErrCodeExternalUnavailable
	default:
		return 0
	}
}
