// Package notify delivers user and operator messages after a unit of work
// commits. Delivery is fire-and-forget: it never blocks the caller and a
// failed send never undoes ledger state.
package notify

import "context"

// Sink is what the reward engines publish to.
type Sink interface {
	Direct(accountID int64, text string)
	Operator(text string)
}

// Sender performs the actual delivery on a chat platform.
type Sender interface {
	SendDirect(ctx context.Context, accountID int64, text string) error
	SendOperator(ctx context.Context, text string) error
}

// Discard drops every message.
type Discard struct{}

func (Discard) Direct(int64, string) {}
func (Discard) Operator(string)      {}
