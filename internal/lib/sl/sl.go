// Package sl содержит атрибуты slog, общие для всех сервисов.
package sl

import "log/slog"

// Err атрибут "error" с текстом ошибки. Для nil пишет пустую строку.
//
//	log.Error("failed to apply payment", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// ChatID атрибут "chat_id" подписчика.
func ChatID(id int64) slog.Attr {
	return slog.Int64("chat_id", id)
}
