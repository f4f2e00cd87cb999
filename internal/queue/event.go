// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/hello-db/internal/database"
)

// ConnectionQueue is the durable queue carrying ConnectionEvent messages.
const ConnectionQueue = "db.connection"

// ConnectionEvent is published once the startup database connection attempt
// has finished, whether it succeeded or not.
type ConnectionEvent struct {
	Connected bool   `json:"connected"`
	Driver    string `json:"driver"`
	Address   string `json:"address"`
	Error     string `json:"error,omitempty"`
	CheckedAt string `json:"checked_at"`
}

// EventFromSnapshot converts a status snapshot into the wire event.
func EventFromSnapshot(s database.StatusSnapshot) ConnectionEvent {
	ev := ConnectionEvent{
		Connected: s.Connected,
		Driver:    s.Driver,
		Address:   s.Address,
		Error:     s.Error,
	}
	if s.CheckedAt != nil {
		ev.CheckedAt = s.CheckedAt.Format(time.RFC3339)
	}
	return ev
}

// DeclareConnectionQueue declares ConnectionQueue (idempotent).  Durable so
// messages survive broker restarts.
func DeclareConnectionQueue(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(
		ConnectionQueue, // name
		true,            // durable
		false,           // autoDelete
		false,           // exclusive
		false,           // noWait
		nil,             // args
	)
	return err
}
