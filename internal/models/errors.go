package models

import "errors"

// Ошибки бизнес-правил. Возвращаются сервисами как ожидаемые исходы
// и отображаются пользователю, в отличие от инфраструктурных ошибок,
// которые оборачиваются и уходят в лог.
var (
	// ErrVoucherNotFound — промокод с таким кодом не существует.
	ErrVoucherNotFound = errors.New("voucher not found")
	// ErrVoucherInactive — промокод отключен администратором.
	ErrVoucherInactive = errors.New("voucher is inactive")
	// ErrVoucherExpired — срок действия промокода истек.
	ErrVoucherExpired = errors.New("voucher is expired")
	// ErrVoucherExhausted — лимит погашений промокода исчерпан.
	ErrVoucherExhausted = errors.New("voucher is exhausted")
	// ErrVoucherAlreadyRedeemed — пользователь уже погасил этот промокод.
	ErrVoucherAlreadyRedeemed = errors.New("voucher already redeemed by user")

	// ErrPaymentNotFound — платеж с таким идентификатором не существует.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrDeviceLimitExceeded — достигнут лимит активных устройств.
	ErrDeviceLimitExceeded = errors.New("device limit exceeded")

	// ErrUserNotFound — пользователь не существует.
	ErrUserNotFound = errors.New("user not found")
)
