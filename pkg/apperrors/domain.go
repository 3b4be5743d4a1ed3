package apperrors

import (
	"net/http"
)

// ErrNotFound - фабрика для "не найдено" поверх ошибки репозитория
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrAlreadyExists - дубликат уникального ключа. Клиентский контракт
// требует 400, а не 409.
func ErrAlreadyExists(err error, domain, message string) *AppError {
	return Wrap(err, CodeAlreadyExists, domain, message, http.StatusBadRequest)
}

// --- Auth ---

var ErrNotAuthenticated = New(
	CodeUnauthorized,
	"auth",
	"Not authenticated",
	http.StatusUnauthorized,
)

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid username or password",
	http.StatusUnauthorized,
)

var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)

var ErrUsernameTaken = New(
	CodeAlreadyExists,
	"auth",
	"Username already exists",
	http.StatusBadRequest,
)

var ErrEmailTaken = New(
	CodeAlreadyExists,
	"auth",
	"Email already in use",
	http.StatusBadRequest,
)

// ErrEmailNotApproved - регистрация без одобренной заявки в листе ожидания
var ErrEmailNotApproved = New(
	CodeForbidden,
	"waitlist",
	"Email is not approved for registration",
	http.StatusForbidden,
)

// ErrSetupTokenNotFound - токена нет ни у одного пользователя
var ErrSetupTokenNotFound = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusNotFound,
)

var ErrSetupTokenExpired = New(
	CodeInvalidToken,
	"auth",
	"Token has expired",
	http.StatusBadRequest,
)

// --- Waitlist ---

var ErrWaitlistDuplicate = New(
	CodeAlreadyExists,
	"waitlist",
	"This email is already registered on the waitlist",
	http.StatusBadRequest,
)

var ErrWaitlistEntryNotFound = New(
	CodeNotFound,
	"waitlist",
	"Email not found in waitlist",
	http.StatusNotFound,
)

// --- Credits & payments ---

var ErrInsufficientCredits = New(
	CodeInsufficientCredits,
	"credits",
	"Insufficient credits",
	http.StatusPaymentRequired,
)

var ErrInvalidCreditPackage = New(
	CodeValidationFailed,
	"credits",
	"Invalid credit package",
	http.StatusBadRequest,
)

var ErrPaymentNotSuccessful = New(
	CodePaymentNotCompleted,
	"payment",
	"Payment not successful",
	http.StatusBadRequest,
)

var ErrPaymentOwnerMismatch = New(
	CodeForbidden,
	"payment",
	"Payment belongs to another user",
	http.StatusForbidden,
)

var ErrWebhookNotConfigured = New(
	CodeInvalidSignature,
	"payment",
	"Webhook secret not configured",
	http.StatusBadRequest,
)

var ErrWebhookSignature = New(
	CodeInvalidSignature,
	"payment",
	"Webhook signature verification failed",
	http.StatusBadRequest,
)

// --- Fashion ---

var ErrOutfitNotFound = New(
	CodeNotFound,
	"outfit",
	"Outfit not found",
	http.StatusNotFound,
)

var ErrOutfitAccessDenied = New(
	CodeForbidden,
	"outfit",
	"Access to outfit denied",
	http.StatusForbidden,
)

// --- Uploads ---

var ErrFileTooLarge = New(
	CodeLimitExceeded,
	"upload",
	"File size exceeds the allowed limit",
	http.StatusRequestEntityTooLarge,
)

var ErrInvalidImage = New(
	CodeValidationFailed,
	"upload",
	"The provided file is not a supported image",
	http.StatusBadRequest,
)

var ErrTooManyRequests = New(
	CodeRateLimited,
	"ratelimit",
	"Too many requests",
	http.StatusTooManyRequests,
)

var ErrMissingFile = New(
	CodeValidationFailed,
	"upload",
	"No image file provided",
	http.StatusBadRequest,
)

// --- AI ---

// ErrAnalysisFailed - модель вернула ответ, который нельзя разобрать
var ErrAnalysisFailed = New(
	CodeExternalServiceError,
	"fashion",
	"Failed to analyze outfit",
	http.StatusInternalServerError,
)
