// Package quiz serves multiple-choice questions and pays for correct answers.
// Each served question is bound to a token; only the holder of the live token
// can answer it, and only once.
package quiz

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/antifraud"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/ledger"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/random"
	"github.com/jumanzarismoilov-jpg/botim/internal/domain/session"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
)

// Presented is a question served to one account.
type Presented struct {
	Token      string
	AccountID  int64
	QuestionID int64
	Question   string
	Options    []string
	Reward     money.Amount
	ExpiresAt  time.Time

	correct int
}

type Outcome struct {
	Correct       bool
	CorrectOption string
	Reward        money.Amount
	Balance       money.Amount
}

type Service struct {
	store    *ledger.Store
	guard    *antifraud.Guard
	rnd      random.Source
	sessions *session.Store[*Presented]
}

func NewService(store *ledger.Store, guard *antifraud.Guard, rnd random.Source, ttl time.Duration) *Service {
	return &Service{
		store:    store,
		guard:    guard,
		rnd:      rnd,
		sessions: session.NewStore[*Presented](ttl, store.Calendar().Now),
	}
}

func (s *Service) Sessions() *session.Store[*Presented] { return s.sessions }

// Serve picks a question the account has not attempted today, falling back to
// the whole catalog once every question was tried. Serving replaces any
// question still pending for the account.
func (s *Service) Serve(ctx context.Context, accountID int64) (*Presented, error) {
	if err := s.guard.Allow(antifraud.ActionQuiz, accountID); err != nil {
		return nil, err
	}

	acc, err := s.store.Account(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acc != nil && acc.Banned {
		return nil, domain.ErrBanned
	}

	repo := s.store.Repos().Quiz
	start, end := s.store.Calendar().TodayBounds()
	pool, err := repo.Unattempted(ctx, accountID, start, end)
	if err != nil {
		return nil, domain.IntegrityError("list questions", err)
	}
	if len(pool) == 0 {
		if pool, err = repo.Questions(ctx); err != nil {
			return nil, domain.IntegrityError("list questions", err)
		}
	}
	if len(pool) == 0 {
		return nil, domain.ErrNoQuestions
	}

	q := pool[s.rnd.IntN(len(pool))]
	p := &Presented{
		Token:      uuid.NewString(),
		AccountID:  accountID,
		QuestionID: q.ID,
		Question:   q.Question,
		Options:    q.Options,
		Reward:     q.Reward,
		correct:    q.Correct,
	}
	p.ExpiresAt = s.sessions.Put(accountID, p)
	return p, nil
}

// Answer settles the question identified by token. Stale, expired, replaced
// or already answered tokens are rejected without side effects.
func (s *Service) Answer(ctx context.Context, accountID int64, token string, option int) (*Outcome, error) {
	p, ok := s.sessions.Get(accountID)
	if !ok || p.Token != token {
		return nil, domain.ErrStaleQuestion
	}
	if option < 0 || option >= len(p.Options) {
		return nil, domain.ErrInvalidOption
	}

	p, ok = s.sessions.Take(accountID, func(v *Presented) bool { return v.Token == token })
	if !ok {
		return nil, domain.ErrStaleQuestion
	}

	out := Outcome{Correct: option == p.correct}
	if p.correct >= 0 && p.correct < len(p.Options) {
		out.CorrectOption = p.Options[p.correct]
	}

	err := s.store.Atomic(ctx, []int64{accountID}, func(ctx context.Context, tx *ledger.Tx) error {
		acc, err := tx.Account(ctx, accountID)
		if err != nil {
			return err
		}
		if acc.Banned {
			return domain.ErrBanned
		}
		if err := tx.Quiz.InsertAttempt(ctx, &models.QuizAttempt{
			AccountID:  accountID,
			QuestionID: p.QuestionID,
			Chosen:     option,
			Correct:    out.Correct,
			CreatedAt:  tx.Now(),
		}); err != nil {
			return err
		}

		out.Balance = acc.Balance
		if !out.Correct || p.Reward == 0 {
			return nil
		}
		if _, err := tx.Append(ctx, ledger.Entry{
			AccountID: accountID,
			Kind:      models.KindQuiz,
			Amount:    p.Reward,
			Reason:    "quiz answer",
			Metadata:  map[string]any{"question_id": p.QuestionID},
		}); err != nil {
			return err
		}
		out.Reward = p.Reward
		out.Balance += p.Reward
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("settle quiz answer: %w", err)
	}
	return &out, nil
}
