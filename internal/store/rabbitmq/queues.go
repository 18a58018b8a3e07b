package rabbitmq

import amqp "github.com/rabbitmq/amqp091-go"

// declareQueues declares the main queue and its dead-letter queue. Publisher
// and consumer both call it so the queue arguments always agree.
func declareQueues(ch *amqp.Channel, queue string) error {
	dlqQ := queue + ".dlq"

	if _, err := ch.QueueDeclare(
		dlqQ,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false,
		nil,
	); err != nil {
		return err
	}

	// Main queue: dead-letter to DLQ on reject/nack(requeue=false)
	_, err := ch.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": dlqQ,
		},
	)
	return err
}
