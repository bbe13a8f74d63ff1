package rabbitmq

import (
	"context"
	"fmt"
	"log"

	"github.com/streadway/amqp"
)

// Одновременно обрабатывается не более maxInflight сообщений на потребителя,
// согласовано с QoS канала.
const maxInflight = 10

// ConsumerMessage подписывается на очередь и обрабатывает сообщения
// переданным обработчиком. Ошибка обработчика возвращает сообщение в
// очередь (nack с requeue), успех подтверждается ack. Подписка живет до
// отмены контекста.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, handler func([]byte) error) error {
	const op = "rabbitmq.ConsumerMessage"

	delivery, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	inflight := make(chan struct{}, maxInflight)
	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				inflight <- struct{}{}
				go func(d amqp.Delivery) {
					defer func() { <-inflight }()
					if err := handler(d.Body); err != nil {
						if nackErr := d.Nack(false, true); nackErr != nil {
							log.Printf("failed to nack message: %v", nackErr)
						}
						return
					}
					if ackErr := d.Ack(false); ackErr != nil {
						log.Printf("failed to ack message: %v", ackErr)
					}
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}
