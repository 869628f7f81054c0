package errs

import "errors"

// Доменные ошибки. Хендлеры сопоставляют их с HTTP-статусами через errors.Is.
var (
	// ErrRequestNotFound — заявка с указанным id не существует.
	ErrRequestNotFound = errors.New("chat request not found")

	// ErrAlreadyClaimed — заявка уже принята (или закрыта): условный UPDATE
	// не прошёл по статусу. Ровно один из гонящихся вызовов accept получает
	// успех, остальные — эту ошибку.
	ErrAlreadyClaimed = errors.New("chat request already claimed")

	// ErrNotClaimant — закрыть заявку может только принявший её специалист,
	// и только из статуса accepted.
	ErrNotClaimant = errors.New("chat request is not claimed by caller")

	// ErrSpecialistNotFound — в каталоге нет записи по указанному email/id.
	ErrSpecialistNotFound = errors.New("specialist not found")

	// ErrNotOwner — запись каталога принадлежит другому пользователю.
	ErrNotOwner = errors.New("specialist profile belongs to another user")
)
