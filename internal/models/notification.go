package models

// UserNotification — сообщение для очереди уведомлений пользователю.
// Публикуется fire-and-forget: ошибки публикации логируются и не
// влияют на исход операции, породившей уведомление.
type UserNotification struct {
	UserUID  string `json:"user_uid"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

// AdminNotification — сообщение для очереди уведомлений администраторам.
type AdminNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}
