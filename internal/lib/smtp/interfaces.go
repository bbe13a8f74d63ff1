// Package smtp содержит транспорт для доставки почтовых уведомлений.
package smtp

import "io"

// Client минимальный набор операций SMTP-сессии, который нужен отправителю.
// Сужение интерфейса позволяет подменять клиента в тестах.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface открывает SMTP-сессии и знает адрес отправителя.
type TransportInterface interface {
	Connect() (Client, error)
	GetSMTPUser() string
}
