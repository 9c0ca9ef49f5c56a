package apperr

import (
	"errors"
	"fmt"
)

// Kind классифицирует ошибку бизнес-логики.
// Транспортный слой переводит Kind в HTTP-статус, ядро о статусах не знает.
type Kind int

const (
	// NotFound — сущность не существует.
	NotFound Kind = iota + 1
	// Forbidden — у актора нет нужного профиля или он не владеет сущностью.
	Forbidden
	// Conflict — операция нарушает инвариант состояния (неверный статус,
	// дубликат уникального ключа, нехватка остатка).
	Conflict
	// Validation — некорректный ввод, отбитый до бизнес-логики.
	Validation
)

// Error типизированная ошибка с сообщением для пользователя API.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return newf(NotFound, format, args...)
}

func Forbiddenf(format string, args ...any) *Error {
	return newf(Forbidden, format, args...)
}

func Conflictf(format string, args ...any) *Error {
	return newf(Conflict, format, args...)
}

func Validationf(format string, args ...any) *Error {
	return newf(Validation, format, args...)
}

// KindOf возвращает Kind ошибки или 0, если ошибка не типизирована.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsNotFound(err error) bool   { return KindOf(err) == NotFound }
func IsForbidden(err error) bool  { return KindOf(err) == Forbidden }
func IsConflict(err error) bool   { return KindOf(err) == Conflict }
func IsValidation(err error) bool { return KindOf(err) == Validation }
