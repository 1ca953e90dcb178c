// Package rabbitmq публикует события сервиса в брокер сообщений.
// Используется для уведомлений о завершённых платежах: сторонний воркер
// рассылки читает очередь независимо от этого сервиса.
package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// Publisher держит соединение и канал для публикации.
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Connect подключается к брокеру и объявляет очередь queue.
func Connect(url, queue string) (*Publisher, error) {
	const op = "rabbitmq.Connect"

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err = ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Publisher{conn: conn, ch: ch}, nil
}

// Publish сериализует сообщение в JSON и публикует его в очередь.
func (p *Publisher) Publish(queue string, message any) error {
	const op = "rabbitmq.Publish"

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	err = p.ch.Publish(
		"",
		queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает канал и соединение.
func (p *Publisher) Close() {
	_ = p.ch.Close()
	_ = p.conn.Close()
}
