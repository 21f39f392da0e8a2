package httputil

// Machine-readable error codes returned in the "code" field
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeUserAlreadyExists  = "USER_ALREADY_EXISTS"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeMissingAuth        = "MISSING_AUTH"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeCarNotFound        = "CAR_NOT_FOUND"
	CodeNotCarOwner        = "NOT_CAR_OWNER"
	CodeTooManyFiles       = "TOO_MANY_FILES"
	CodeInvalidUpload      = "INVALID_UPLOAD"
	CodeFileNotFound       = "FILE_NOT_FOUND"
	CodeInternalError      = "INTERNAL_ERROR"
)
