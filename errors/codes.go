package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// ErrCodeNotFound indicates the requested object does not exist.
const ErrCodeNotFound ErrorCode = "NOT_FOUND"

// ErrCodeInvalidInput indicates the request is invalid.
const ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"

// Signed-token errors
const (
	// ErrCodeInvalidToken indicates a signed access token failed verification.
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
	// ErrCodeTokenExpired indicates a signed access token is past its expiry.
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
)

// Gateway operation failures
const (
	// ErrCodeUploadFailed indicates the backend write of an upload failed.
	ErrCodeUploadFailed ErrorCode = "UPLOAD_FAILED"
	// ErrCodeListFailed indicates a folder listing or count failed.
	ErrCodeListFailed ErrorCode = "LIST_FAILED"
	// ErrCodeInternal indicates an unclassified internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// The gateway never retries on its own; these flags only advise clients.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeUploadFailed: true,
	ErrCodeListFailed:   true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
