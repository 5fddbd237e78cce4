package sinks

import "context"

// Sink forwards tracked events to a downstream consumer (SQS, SNS,
// Pub/Sub, HTTP, etc).
type Sink interface {
	ID() string
	Type() string
	Send(ctx context.Context, env Envelope) error
}
