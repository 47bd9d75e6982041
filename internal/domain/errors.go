package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode стабильный код ошибки, отдаваемый клиенту в поле "error"
type ErrorCode string

const (
	CodeInvalidRequest            ErrorCode = "invalid_request"
	CodeUnauthorized              ErrorCode = "unauthorized"
	CodeNotFound                  ErrorCode = "not_found"
	CodeMethodNotAllowed          ErrorCode = "method_not_allowed"
	CodeProviderUnavailable       ErrorCode = "provider_unavailable"
	CodeSessionCreationFailed     ErrorCode = "session_creation_failed"
	CodeSessionResolutionFailed   ErrorCode = "session_resolution_failed"
	CodeReconciliationWriteFailed ErrorCode = "reconciliation_write_failed"
	CodeInternal                  ErrorCode = "internal_error"
)

// Application errors
var (
	// ErrInvalidRequest отсутствующие или некорректные входные данные
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnauthorized неверный или отсутствующий токен администратора
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound запись не найдена
	ErrNotFound = errors.New("record not found")

	// ErrProviderUnavailable биллинг-провайдер недоступен или не настроен
	ErrProviderUnavailable = errors.New("billing provider unavailable")

	// ErrProviderRejected провайдер принял запрос, но отказал в операции
	ErrProviderRejected = errors.New("billing provider rejected the operation")

	// ErrSessionCreationFailed не удалось создать сессию
	ErrSessionCreationFailed = errors.New("session creation failed")

	// ErrSessionResolutionFailed не удалось получить сессию
	ErrSessionResolutionFailed = errors.New("session resolution failed")

	// ErrReconciliationWriteFailed фоновая запись метаданных не удалась
	ErrReconciliationWriteFailed = errors.New("reconciliation write failed")
)

var sentinelByCode = map[ErrorCode]error{
	CodeInvalidRequest:            ErrInvalidRequest,
	CodeUnauthorized:              ErrUnauthorized,
	CodeNotFound:                  ErrNotFound,
	CodeProviderUnavailable:       ErrProviderUnavailable,
	CodeSessionCreationFailed:     ErrSessionCreationFailed,
	CodeSessionResolutionFailed:   ErrSessionResolutionFailed,
	CodeReconciliationWriteFailed: ErrReconciliationWriteFailed,
}

// AppError ошибка приложения со стабильным кодом
type AppError struct {
	Code        ErrorCode
	Message     string
	Field       string
	OriginalErr error
}

// Error реализует интерфейс error
func (e *AppError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap возвращает оригинальную ошибку
func (e *AppError) Unwrap() error {
	return e.OriginalErr
}

// Is сопоставляет ошибку с sentinel-ошибкой её кода
func (e *AppError) Is(target error) bool {
	sentinel, ok := sentinelByCode[e.Code]
	return ok && target == sentinel
}

// StatusCode HTTP-статус для кода ошибки
func (e *AppError) StatusCode() int {
	return StatusForCode(e.Code)
}

// StatusForCode HTTP-статус для кода ошибки
func StatusForCode(code ErrorCode) int {
	switch code {
	case CodeInvalidRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// NewInvalidRequest ошибка валидации с указанием поля
func NewInvalidRequest(field, message string) *AppError {
	return &AppError{Code: CodeInvalidRequest, Field: field, Message: message}
}

// NewMissingField ошибка отсутствующего обязательного поля
func NewMissingField(field string) *AppError {
	return NewInvalidRequest(field, fmt.Sprintf("missing required field: %s", field))
}

// NewAppError создает ошибку приложения
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, OriginalErr: err}
}

// ProviderError ошибка биллинг-провайдера
type ProviderError struct {
	Operation   string
	Message     string
	Unavailable bool
	NotFound    bool
	OriginalErr error
}

// Error реализует интерфейс error
func (e *ProviderError) Error() string {
	return fmt.Sprintf("billing provider %s: %s", e.Operation, e.Message)
}

// Unwrap возвращает оригинальную ошибку
func (e *ProviderError) Unwrap() error {
	return e.OriginalErr
}

// Is проверяет, является ли ошибка недоступностью или отказом провайдера
func (e *ProviderError) Is(target error) bool {
	if e.NotFound && target == ErrNotFound {
		return true
	}
	if e.Unavailable {
		return target == ErrProviderUnavailable
	}
	return target == ErrProviderRejected
}

// NewProviderError создает ошибку провайдера
func NewProviderError(operation, message string, unavailable bool, err error) *ProviderError {
	return &ProviderError{
		Operation:   operation,
		Message:     message,
		Unavailable: unavailable,
		OriginalErr: err,
	}
}

// ProviderMessage сообщение провайдера для диагностики оператором
func ProviderMessage(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}

// AsAppError приводит произвольную ошибку к AppError
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, ErrProviderUnavailable) {
		return NewAppError(CodeProviderUnavailable, "billing provider unavailable", err)
	}
	if errors.Is(err, ErrNotFound) {
		return NewAppError(CodeNotFound, "resource not found", err)
	}
	return NewAppError(CodeInternal, "internal server error", err)
}

// SideEffect результат вторичной best-effort операции. Никогда не превращается в ошибку ответа.
type SideEffect struct {
	Name      string
	Attempted bool
	Err       error
}

// Succeeded true, если операция выполнялась и завершилась без ошибки
func (s SideEffect) Succeeded() bool {
	return s.Attempted && s.Err == nil
}
