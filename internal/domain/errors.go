package domain

import "errors"

// Ошибки правил машины состояний. Сервисный слой оборачивает их
// в типизированные ошибки с сообщением для пользователя.
var (
	ErrOrderFinalized     = errors.New("order is in a terminal status")
	ErrBackwardTransition = errors.New("transition to an awaiting status is not allowed")
)
