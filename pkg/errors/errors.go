package errors

import (
	"fmt"
	"net/http"
)

var (
	// JWT и токены
	ErrInvalidSigningMethod = fmt.Errorf("неверный метод подписи токена")
	ErrInvalidToken         = fmt.Errorf("недопустимый токен")
	ErrTokenExpired         = fmt.Errorf("срок действия токена истёк")

	// Авторизация
	ErrEmptyAuthHeader   = fmt.Errorf("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader = fmt.Errorf("неверный формат заголовка авторизации")
	ErrUnauthorized      = fmt.Errorf("неавторизован")
	ErrForbidden         = fmt.Errorf("доступ запрещён")
	ErrTooManyRequests   = fmt.Errorf("слишком много запросов")

	// Контекст
	ErrUserIDNotFoundInContext = fmt.Errorf("EmployeeID не найден в контексте запроса")
	ErrUserNotFound            = fmt.Errorf("сотрудник не найден")

	// Общие
	ErrNotFound          = fmt.Errorf("запись не найдена")
	ErrBadRequest        = fmt.Errorf("неверный запрос")
	ErrConflict          = fmt.Errorf("конфликт данных")
	ErrInternalServer    = fmt.Errorf("внутренняя ошибка сервера")
	ErrInvalidTransition = fmt.Errorf("недопустимый переход статуса")
)

// StatusCodes сопоставляет sentinel-ошибки с HTTP-кодами.
var StatusCodes = map[error]int{
	ErrInvalidSigningMethod:    http.StatusUnauthorized,
	ErrInvalidToken:            http.StatusUnauthorized,
	ErrTokenExpired:            http.StatusUnauthorized,
	ErrEmptyAuthHeader:         http.StatusUnauthorized,
	ErrInvalidAuthHeader:       http.StatusUnauthorized,
	ErrUnauthorized:            http.StatusUnauthorized,
	ErrUserIDNotFoundInContext: http.StatusUnauthorized,
	ErrForbidden:               http.StatusForbidden,
	ErrTooManyRequests:         http.StatusTooManyRequests,
	ErrUserNotFound:            http.StatusNotFound,
	ErrNotFound:                http.StatusNotFound,
	ErrBadRequest:              http.StatusBadRequest,
	ErrConflict:                http.StatusConflict,
	ErrInvalidTransition:       http.StatusConflict,
	ErrInternalServer:          http.StatusInternalServerError,
}

// HttpError: ошибка с готовым HTTP-кодом и сообщением для клиента.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Context map[string]interface{}
	Details interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, context map[string]interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Context: context}
}

// Кастомные типы ошибок
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}
