package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const (
	ChannelDirect   = "direct"
	ChannelOperator = "operator"

	defaultQueueSize   = 256
	defaultSendTimeout = 10 * time.Second
)

type message struct {
	channel   string
	accountID int64
	text      string
}

// Dispatcher queues messages and delivers them from background workers.
// When the queue is full new messages are dropped.
type Dispatcher struct {
	mu     sync.RWMutex
	sender Sender

	queue   chan message
	timeout time.Duration
	workers int
	wg      sync.WaitGroup

	qmu    sync.RWMutex
	closed bool

	// OnResult observes every delivery outcome: "sent", "failed" or "dropped".
	OnResult func(channel, result string)
}

func NewDispatcher(queueSize, workers int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		queue:   make(chan message, queueSize),
		timeout: defaultSendTimeout,
		workers: workers,
	}
}

// SetSender swaps the delivery backend; the chat client is only available
// after the engines are built.
func (d *Dispatcher) SetSender(s Sender) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sender = s
}

func (d *Dispatcher) Direct(accountID int64, text string) {
	d.enqueue(message{channel: ChannelDirect, accountID: accountID, text: text})
}

func (d *Dispatcher) Operator(text string) {
	d.enqueue(message{channel: ChannelOperator, text: text})
}

func (d *Dispatcher) enqueue(m message) {
	d.qmu.RLock()
	defer d.qmu.RUnlock()

	if d.closed {
		d.result(m.channel, "dropped")
		return
	}

	select {
	case d.queue <- m:
	default:
		slog.Warn("Notification queue full, dropping message",
			slog.String("type", "sys"),
			slog.String("channel", m.channel),
			slog.Int64("account_id", m.accountID))
		d.result(m.channel, "dropped")
	}
}

// Start launches the workers. They exit once Close has drained the queue.
func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for m := range d.queue {
				d.deliver(m)
			}
		}()
	}
}

// Close stops accepting messages and waits for queued ones to be attempted.
func (d *Dispatcher) Close() {
	d.qmu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.qmu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) deliver(m message) {
	d.mu.RLock()
	sender := d.sender
	d.mu.RUnlock()

	if sender == nil {
		slog.Debug("No notification sender configured",
			slog.String("type", "sys"),
			slog.String("channel", m.channel),
			slog.String("text", m.text))
		d.result(m.channel, "dropped")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	var err error
	switch m.channel {
	case ChannelDirect:
		err = sender.SendDirect(ctx, m.accountID, m.text)
	case ChannelOperator:
		err = sender.SendOperator(ctx, m.text)
	default:
		err = errors.New("unknown channel")
	}

	if err != nil {
		slog.Warn("Notification delivery failed",
			slog.String("type", "sys"),
			slog.String("channel", m.channel),
			slog.Int64("account_id", m.accountID),
			slog.Any("error", err))
		d.result(m.channel, "failed")
		return
	}
	d.result(m.channel, "sent")
}

func (d *Dispatcher) result(channel, result string) {
	if d.OnResult != nil {
		d.OnResult(channel, result)
	}
}
