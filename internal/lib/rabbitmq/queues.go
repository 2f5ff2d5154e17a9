package rabbitmq

// Exchange обменник, через который идут все сообщения сервиса.
const Exchange = "notifications"

const prefetchCount = 10

// Очереди и ключи маршрутизации.
const (
	QueueExpiring      = "notifications.expiring"
	RoutingKeyExpiring = "expiring"

	QueuePaymentsApproved      = "payments.approved"
	RoutingKeyPaymentsApproved = "payment.approved"
)

// QueueConfig очередь и ключ, по которому она привязана к Exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// NotificationQueues очереди уведомлений о скором окончании оплаченного периода.
func NotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueExpiring, RoutingKey: RoutingKeyExpiring},
	}
}

// PaymentQueues очереди одобренных платежей.
func PaymentQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueuePaymentsApproved, RoutingKey: RoutingKeyPaymentsApproved},
	}
}
