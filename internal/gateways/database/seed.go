package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/repositories"
)

var quizCatalog = []models.QuizQuestion{
	{
		Question: "What is the capital of Uzbekistan?",
		Options:  []string{"Samarkand", "Tashkent", "Bukhara", "Khiva"},
		Correct:  1,
		Reward:   money.Cents(50),
	},
	{
		Question: "Which planet is known as the red planet?",
		Options:  []string{"Mars", "Venus", "Jupiter"},
		Correct:  0,
		Reward:   money.Cents(50),
	},
	{
		Question: "How much is 7 x 8?",
		Options:  []string{"54", "56", "64"},
		Correct:  1,
		Reward:   money.Cents(50),
	},
}

var missionCatalog = []models.Mission{
	{
		Code:        "ref1",
		Title:       "First friend",
		Description: "Invite one friend with your referral code",
		Reward:      money.Cents(400),
		Conditions:  map[string]int{"referrals": 1},
	},
	{
		Code:        "spin1",
		Title:       "Lucky start",
		Description: "Spin the wheel once",
		Reward:      money.Cents(50),
		Conditions:  map[string]int{"spins": 1},
	},
	{
		Code:        "quiz3",
		Title:       "Quiz regular",
		Description: "Answer three quiz questions correctly",
		Reward:      money.Cents(100),
		Conditions:  map[string]int{"quiz_correct": 3},
	},
	{
		Code:        "streak7",
		Title:       "Week streak",
		Description: "Claim the daily bonus seven days in a row",
		Reward:      money.Cents(200),
		Conditions:  map[string]int{"bonus_streak": 7},
	},
}

// SeedCatalog upserts the built-in quiz questions and missions.
func SeedCatalog(ctx context.Context, repos *repositories.Set) error {
	now := time.Now().UTC()

	for _, q := range quizCatalog {
		q := q
		q.CreatedAt = now
		if err := repos.Quiz.UpsertQuestion(ctx, &q); err != nil {
			return err
		}
	}

	for _, m := range missionCatalog {
		m := m
		m.CreatedAt = now
		if err := repos.Missions.Upsert(ctx, &m); err != nil {
			return err
		}
	}

	slog.Info("Catalog seeded",
		slog.String("type", "db"),
		slog.Int("questions", len(quizCatalog)),
		slog.Int("missions", len(missionCatalog)))
	return nil
}
