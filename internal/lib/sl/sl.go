// Package sl содержит вспомогательные функции для логгера slog.
package sl

import "log/slog"

// Err возвращает атрибут с ключом "error" и текстом ошибки. Единый ключ
// позволяет фильтровать ошибки в агрегаторе логов независимо от сервиса.
//
//	log.Error("failed to confirm payment", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.String("error", err.Error())
}
