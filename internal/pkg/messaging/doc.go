// Package messaging publishes domain events to a message broker.
//
// Use cases depend on the Publisher interface; the broker (Kafka, NATS, NSQ
// or Google Pub/Sub) is chosen at startup with NewFromDriver. Noop stands in
// when event publishing is disabled.
package messaging
