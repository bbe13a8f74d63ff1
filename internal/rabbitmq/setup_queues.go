package rabbitmq

// Exchange — единственный обменник уведомлений. Очереди пользовательских и
// административных уведомлений привязываются к нему своими ключами маршрутизации.
const Exchange = "notifications"

// Имена очередей и ключи маршрутизации уведомлений.
const (
	UserQueue  = "notifications.user"
	AdminQueue = "notifications.admin"

	UserRoutingKey  = "user"
	AdminRoutingKey = "admin"
)

// QueueConfig связывает очередь с ключом маршрутизации в обменнике уведомлений.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает полный набор очередей уведомлений движка.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: UserQueue, RoutingKey: UserRoutingKey},
		{QueueName: AdminQueue, RoutingKey: AdminRoutingKey},
	}
}
