// Package transfer moves coins between accounts through a short
// conversation: recipient, amount, then an explicit confirmation. Nothing
// touches the ledger until confirmation, and confirmation re-checks every
// rule inside one atomic unit covering both accounts.
package transfer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/antifraud"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/ledger"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/notify"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/session"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
)

type State int

const (
	AwaitingRecipient State = iota + 1
	AwaitingAmount
	AwaitingConfirmation
	Committed
	Cancelled
	Aborted
)

func (s State) String() string {
	switch s {
	case AwaitingRecipient:
		return "awaiting_recipient"
	case AwaitingAmount:
		return "awaiting_amount"
	case AwaitingConfirmation:
		return "awaiting_confirmation"
	case Committed:
		return "committed"
	case Cancelled:
		return "cancelled"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal states leave no session behind.
func (s State) Terminal() bool {
	return s == Committed || s == Cancelled || s == Aborted
}

// Session is the in-progress transfer of one sender. Token identifies one
// conversation; buttons carry it so a prompt cannot act on a later session.
type Session struct {
	Token     string
	State     State
	Sender    int64
	Recipient int64
	Amount    money.Amount
}

// Step is what the conversation shows after an input.
type Step struct {
	Session
	Balance   money.Amount
	SentToday money.Amount
	ExpiresAt time.Time
}

type Receipt struct {
	Sender        int64
	Recipient     int64
	Amount        money.Amount
	SenderBalance money.Amount
	EventID       int64
}

type Machine struct {
	store    *ledger.Store
	guard    *antifraud.Guard
	notify   notify.Sink
	sessions *session.Store[Session]
}

func NewMachine(store *ledger.Store, guard *antifraud.Guard, sink notify.Sink, ttl time.Duration) *Machine {
	return &Machine{
		store:    store,
		guard:    guard,
		notify:   sink,
		sessions: session.NewStore[Session](ttl, store.Calendar().Now),
	}
}

func (m *Machine) Sessions() *session.Store[Session] { return m.sessions }

// Active returns the sender's live session, if any.
func (m *Machine) Active(sender int64) (Session, bool) {
	return m.sessions.Get(sender)
}

// Start opens a new session, replacing any unfinished one.
func (m *Machine) Start(ctx context.Context, sender int64) (*Step, error) {
	if err := m.guard.Allow(antifraud.ActionTransfer, sender); err != nil {
		return nil, err
	}
	acc, err := m.store.Account(ctx, sender)
	if err != nil {
		return nil, err
	}
	if acc != nil && acc.Banned {
		return nil, domain.ErrBanned
	}

	s := Session{Token: uuid.NewString(), State: AwaitingRecipient, Sender: sender}
	expiresAt := m.sessions.Put(sender, s)
	return &Step{Session: s, ExpiresAt: expiresAt}, nil
}

// Input feeds one free-text answer into the conversation. Validation errors
// keep the current state so the caller can re-prompt; policy errors abort.
func (m *Machine) Input(ctx context.Context, sender int64, text string) (*Step, error) {
	s, ok := m.sessions.Get(sender)
	if !ok {
		return nil, domain.ErrNoSession
	}

	switch s.State {
	case AwaitingRecipient:
		recipient, err := parseRecipient(text)
		if err != nil {
			return &Step{Session: s}, err
		}
		if recipient == sender {
			return &Step{Session: s}, domain.ErrSelfTransfer
		}
		return m.advance(s, func(cur Session) Session {
			cur.Recipient = recipient
			cur.State = AwaitingAmount
			return cur
		})

	case AwaitingAmount:
		amount, err := money.ParseTransfer(text)
		if err != nil {
			return &Step{Session: s}, domain.ErrInvalidAmount
		}
		if amount <= 0 {
			return &Step{Session: s}, domain.ErrNonPositiveAmount
		}

		var balance, sent money.Amount
		acc, err := m.store.Account(ctx, sender)
		if err != nil {
			return &Step{Session: s}, err
		}
		if acc != nil {
			balance, sent = acc.Balance, acc.DailySent
		}
		if balance < amount {
			return m.abort(s, domain.ErrInsufficientFunds)
		}
		if err := m.guard.CheckSend(sent, amount); err != nil {
			return m.abort(s, err)
		}

		step, err := m.advance(s, func(cur Session) Session {
			cur.Amount = amount
			cur.State = AwaitingConfirmation
			return cur
		})
		if step != nil {
			step.Balance, step.SentToday = balance, sent
		}
		return step, err

	default:
		// Free text while waiting for the buttons changes nothing.
		return &Step{Session: s}, nil
	}
}

// Confirm commits the transfer the token's prompt showed. The session is
// consumed whatever the outcome.
func (m *Machine) Confirm(ctx context.Context, sender int64, token string) (*Receipt, error) {
	s, ok := m.sessions.Take(sender, func(cur Session) bool {
		return cur.Token == token && cur.State == AwaitingConfirmation
	})
	if !ok {
		return nil, m.missing(sender, token)
	}

	rc := Receipt{Sender: s.Sender, Recipient: s.Recipient, Amount: s.Amount}
	err := m.store.Atomic(ctx, []int64{s.Sender, s.Recipient}, func(ctx context.Context, tx *ledger.Tx) error {
		from, err := tx.Account(ctx, s.Sender)
		if err != nil {
			return err
		}
		to, err := tx.Account(ctx, s.Recipient)
		if err != nil {
			return err
		}

		if from.Banned {
			return domain.ErrBanned
		}
		if to.Banned {
			return domain.ErrRecipientBanned
		}
		if from.Balance < s.Amount {
			return domain.ErrInsufficientFunds
		}
		if err := m.guard.CheckSend(from.DailySent, s.Amount); err != nil {
			return err
		}

		out, err := tx.Append(ctx, ledger.Entry{
			AccountID: s.Sender,
			Kind:      models.KindTransferOut,
			Amount:    s.Amount.Neg(),
			Reason:    "transfer",
			Metadata:  map[string]any{"to": strconv.FormatInt(s.Recipient, 10)},
		})
		if err != nil {
			return err
		}
		if _, err := tx.Append(ctx, ledger.Entry{
			AccountID: s.Recipient,
			Kind:      models.KindTransferIn,
			Amount:    s.Amount,
			Reason:    "transfer",
			Metadata:  map[string]any{"from": strconv.FormatInt(s.Sender, 10), "event": out.ID},
		}); err != nil {
			return err
		}

		from.DailySent += s.Amount
		if err := tx.Save(ctx, from, "daily_sent"); err != nil {
			return err
		}

		rc.EventID = out.ID
		rc.SenderBalance = from.Balance - s.Amount
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.notify.Direct(s.Recipient, fmt.Sprintf("You received %s coins from account %d.", s.Amount, s.Sender))
	m.notify.Operator(fmt.Sprintf("Transfer: %d -> %d, %s", s.Sender, s.Recipient, s.Amount))
	return &rc, nil
}

// Cancel drops the conversation identified by token.
func (m *Machine) Cancel(sender int64, token string) error {
	if _, ok := m.sessions.Take(sender, func(cur Session) bool { return cur.Token == token }); !ok {
		return m.missing(sender, token)
	}
	return nil
}

// missing tells a button on an old prompt apart from no session at all.
func (m *Machine) missing(sender int64, token string) error {
	if cur, ok := m.sessions.Get(sender); ok && cur.Token != token {
		return domain.ErrStaleTransfer
	}
	return domain.ErrNoSession
}

// advance applies fn only if the session is still the one read as from.
// Otherwise the reply raced another input or a fresh Start and is dropped.
func (m *Machine) advance(from Session, fn func(Session) Session) (*Step, error) {
	var (
		next  Session
		stale bool
	)
	expiresAt, ok := m.sessions.Update(from.Sender, func(cur Session) Session {
		if cur.Token != from.Token || cur.State != from.State {
			next, stale = cur, true
			return cur
		}
		next = fn(cur)
		return next
	})
	if !ok {
		return nil, domain.ErrNoSession
	}
	if stale {
		return &Step{Session: next, ExpiresAt: expiresAt}, domain.ErrStaleTransfer
	}
	return &Step{Session: next, ExpiresAt: expiresAt}, nil
}

func (m *Machine) abort(s Session, reason error) (*Step, error) {
	m.sessions.Take(s.Sender, func(cur Session) bool { return cur.Token == s.Token })
	s.State = Aborted
	return &Step{Session: s}, reason
}

func parseRecipient(text string) (int64, error) {
	text = strings.TrimPrefix(strings.TrimSpace(text), "#")
	if text == "" {
		return 0, domain.ErrInvalidRecipient
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, domain.ErrInvalidRecipient
		}
	}
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidRecipient
	}
	return id, nil
}
