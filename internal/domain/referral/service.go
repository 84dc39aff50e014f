// Package referral links a new account to the account that invited it and
// pays the inviter once per referred account.
package referral

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jumanzarismoilov-jpg/botim/internal/domain"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/antifraud"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/ledger"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/notify"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
)

const codePrefix = "ref"

type Config struct {
	Reward money.Amount
	Limit  int
}

type Result struct {
	ReferrerID int64
	Linked     bool
	Reward     money.Amount
}

type Service struct {
	store  *ledger.Store
	guard  *antifraud.Guard
	notify notify.Sink
	cfg    Config
}

func NewService(store *ledger.Store, guard *antifraud.Guard, sink notify.Sink, cfg Config) *Service {
	return &Service{store: store, guard: guard, notify: sink, cfg: cfg}
}

// Code is the shareable referral code of an account.
func Code(accountID int64) string {
	return codePrefix + strconv.FormatInt(accountID, 10)
}

// ParseCode accepts "ref123" or a bare id.
func ParseCode(code string) (int64, error) {
	code = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(code)), codePrefix)
	id, err := strconv.ParseInt(code, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidReferral
	}
	return id, nil
}

// Redeem records that referredID joined through referrerID's code. A referred
// account that already has a link is left unchanged and Linked is false.
func (s *Service) Redeem(ctx context.Context, referredID int64, code string) (*Result, error) {
	referrerID, err := ParseCode(code)
	if err != nil {
		return nil, err
	}
	if referrerID == referredID {
		return nil, domain.ErrReferralSelf
	}
	if err := s.guard.Allow(antifraud.ActionReferral, referredID); err != nil {
		return nil, err
	}

	res := Result{ReferrerID: referrerID}
	err = s.store.Atomic(ctx, []int64{referrerID, referredID}, func(ctx context.Context, tx *ledger.Tx) error {
		if _, err := tx.Account(ctx, referredID); err != nil {
			return err
		}
		exists, err := tx.Referrals.Exists(ctx, referredID)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		if s.cfg.Limit > 0 {
			n, err := tx.Referrals.CountByReferrer(ctx, referrerID)
			if err != nil {
				return err
			}
			if n >= s.cfg.Limit {
				return domain.ErrReferralLimit
			}
		}

		inserted, err := tx.Referrals.Insert(ctx, &models.Referral{
			ReferrerID: referrerID,
			ReferredID: referredID,
			CreatedAt:  tx.Now(),
		})
		if err != nil || !inserted {
			return err
		}
		if err := tx.Accounts.SetReferredBy(ctx, referredID, referrerID, tx.Now()); err != nil {
			return err
		}
		if _, err := tx.Append(ctx, ledger.Entry{
			AccountID: referrerID,
			Kind:      models.KindReferral,
			Amount:    s.cfg.Reward,
			Reason:    "referral",
			Metadata:  map[string]any{"referred": strconv.FormatInt(referredID, 10)},
		}); err != nil {
			return err
		}

		res.Linked = true
		res.Reward = s.cfg.Reward
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Linked {
		s.notify.Direct(referrerID, fmt.Sprintf("A new friend joined with your referral code. You earned %s coins.", res.Reward))
	}
	return &res, nil
}
