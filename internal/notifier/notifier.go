// Package notifier публикует уведомления в брокер сообщений.
package notifier

import (
	"fmt"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/entitlement-engine/internal/models"
	"github.com/magabrotheeeer/entitlement-engine/internal/rabbitmq"
)

// Notifier отправляет уведомления в обменник notifications.
// Доставку и повторы берет на себя брокер, отправитель не ждет получателя.
type Notifier struct {
	ch *amqp.Channel
}

// New создает Notifier поверх открытого канала RabbitMQ.
func New(ch *amqp.Channel) *Notifier {
	return &Notifier{ch: ch}
}

// NotifyUser публикует уведомление для пользователя.
func (n *Notifier) NotifyUser(msg models.UserNotification) error {
	const op = "notifier.NotifyUser"
	if err := rabbitmq.PublishMessage(n.ch, rabbitmq.Exchange, rabbitmq.UserRoutingKey, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// NotifyAdmins публикует уведомление для администраторов.
func (n *Notifier) NotifyAdmins(msg models.AdminNotification) error {
	const op = "notifier.NotifyAdmins"
	if err := rabbitmq.PublishMessage(n.ch, rabbitmq.Exchange, rabbitmq.AdminRoutingKey, msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
