// Package missions evaluates declarative missions: each mission lists counter
// thresholds and pays its reward once, the first time every threshold holds.
package missions

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jumanzarismoilov-jpg/botim/internal/domain"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/ledger"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/notify"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
)

type Status struct {
	Mission   *models.Mission
	Completed bool
}

type Service struct {
	store    *ledger.Store
	registry Registry
	notify   notify.Sink
}

func NewService(store *ledger.Store, registry Registry, sink notify.Sink) *Service {
	return &Service{store: store, registry: registry, notify: sink}
}

// Evaluate completes every mission whose conditions the account now meets and
// returns the newly completed ones. Running it again is a no-op.
func (s *Service) Evaluate(ctx context.Context, accountID int64) ([]*models.Mission, error) {
	catalog, err := s.store.Repos().Missions.List(ctx)
	if err != nil {
		return nil, domain.IntegrityError("list missions", err)
	}
	if len(catalog) == 0 {
		return nil, nil
	}

	var completed []*models.Mission
	err = s.store.Atomic(ctx, []int64{accountID}, func(ctx context.Context, tx *ledger.Tx) error {
		completed = completed[:0]

		acc, err := tx.Account(ctx, accountID)
		if err != nil {
			return err
		}
		done, err := tx.Missions.Completed(ctx, accountID)
		if err != nil {
			return err
		}

		for _, m := range catalog {
			if done[m.ID] {
				continue
			}
			met, err := s.met(ctx, tx, acc, m)
			if err != nil {
				return err
			}
			if !met {
				continue
			}

			inserted, err := tx.Missions.Complete(ctx, &models.MissionCompletion{
				AccountID:   accountID,
				MissionID:   m.ID,
				CompletedAt: tx.Now(),
			})
			if err != nil {
				return err
			}
			if !inserted {
				continue
			}
			if _, err := tx.Append(ctx, ledger.Entry{
				AccountID: accountID,
				Kind:      models.KindMissionReward,
				Amount:    m.Reward,
				Reason:    "mission " + m.Code,
				Metadata:  map[string]any{"mission": m.Code},
			}); err != nil {
				return err
			}
			completed = append(completed, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, m := range completed {
		s.notify.Direct(accountID, fmt.Sprintf("Mission complete: %s. You earned %s coins.", m.Title, m.Reward))
		s.notify.Operator(fmt.Sprintf("Mission %s completed by account %d (+%s)", m.Code, accountID, m.Reward))
	}
	return completed, nil
}

// Overview lists every mission with the account's completion state.
func (s *Service) Overview(ctx context.Context, accountID int64) ([]Status, error) {
	repo := s.store.Repos().Missions
	catalog, err := repo.List(ctx)
	if err != nil {
		return nil, domain.IntegrityError("list missions", err)
	}
	done, err := repo.Completed(ctx, accountID)
	if err != nil {
		return nil, domain.IntegrityError("list completions", err)
	}

	out := make([]Status, 0, len(catalog))
	for _, m := range catalog {
		out = append(out, Status{Mission: m, Completed: done[m.ID]})
	}
	return out, nil
}

// TotalReward sums the rewards of the given missions.
func TotalReward(ms []*models.Mission) money.Amount {
	var total money.Amount
	for _, m := range ms {
		total += m.Reward
	}
	return total
}

func (s *Service) met(ctx context.Context, tx *ledger.Tx, acc *models.Account, m *models.Mission) (bool, error) {
	if len(m.Conditions) == 0 {
		return false, nil
	}

	names := make([]string, 0, len(m.Conditions))
	for name := range m.Conditions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		counter, ok := s.registry[name]
		if !ok {
			slog.Warn("Mission uses an unknown condition",
				slog.String("type", "sys"),
				slog.String("mission", m.Code),
				slog.String("condition", name))
			return false, nil
		}
		n, err := counter(ctx, tx, acc)
		if err != nil {
			return false, err
		}
		if n < m.Conditions[name] {
			return false, nil
		}
	}
	return true, nil
}
