// Package orders stores free-text orders for the operators to follow up.
package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/antifraud"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/ledger"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/notify"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
)

const MaxTextLength = 1000

type Service struct {
	store  *ledger.Store
	guard  *antifraud.Guard
	notify notify.Sink
}

func NewService(store *ledger.Store, guard *antifraud.Guard, sink notify.Sink) *Service {
	return &Service{store: store, guard: guard, notify: sink}
}

// Submit records an order and forwards it to the operator channel.
func (s *Service) Submit(ctx context.Context, accountID int64, text string) (*models.Order, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyOrder
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		text = string([]rune(text)[:MaxTextLength])
	}
	if err := s.guard.Allow(antifraud.ActionOrder, accountID); err != nil {
		return nil, err
	}

	o := &models.Order{
		Ref:       newRef(),
		AccountID: accountID,
		Text:      text,
		Status:    models.OrderStatusNew,
		CreatedAt: s.store.Calendar().Now(),
	}
	if err := s.store.Repos().Orders.Insert(ctx, o); err != nil {
		return nil, domain.IntegrityError("insert order", err)
	}

	slog.Info("Order submitted",
		slog.String("type", "sys"),
		slog.Int64("account_id", accountID),
		slog.String("ref", o.Ref))
	s.notify.Operator(fmt.Sprintf("New order %s\nUser: %d\nText: %s", o.Ref, accountID, text))
	return o, nil
}

func (s *Service) Pending(ctx context.Context, limit int) ([]*models.Order, error) {
	list, err := s.store.Repos().Orders.ListByStatus(ctx, models.OrderStatusNew, limit)
	if err != nil {
		return nil, domain.IntegrityError("list orders", err)
	}
	return list, nil
}

func (s *Service) PendingCount(ctx context.Context) (int, error) {
	n, err := s.store.Repos().Orders.CountByStatus(ctx, models.OrderStatusNew)
	if err != nil {
		return 0, domain.IntegrityError("count orders", err)
	}
	return n, nil
}

// Close marks an order done. It reports false for an unknown id.
func (s *Service) Close(ctx context.Context, id int64) (bool, error) {
	ok, err := s.store.Repos().Orders.SetStatus(ctx, id, models.OrderStatusDone)
	if err != nil {
		return false, domain.IntegrityError("close order", err)
	}
	return ok, nil
}

func newRef() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
