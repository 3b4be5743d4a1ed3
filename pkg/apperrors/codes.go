package apperrors

type ErrorCode string

const (
	// Системные
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// Бизнес-логика
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeAlreadyExists       ErrorCode = "ALREADY_EXISTS"
	CodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	CodeConflict            ErrorCode = "CONFLICT"
	CodeLimitExceeded       ErrorCode = "LIMIT_EXCEEDED"
	CodeRateLimited         ErrorCode = "RATE_LIMITED"
	CodeInsufficientCredits ErrorCode = "INSUFFICIENT_CREDITS"
	CodePaymentNotCompleted ErrorCode = "PAYMENT_NOT_COMPLETED"

	// Аутентификация и авторизация
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	CodeInvalidSignature   ErrorCode = "INVALID_SIGNATURE"
)
