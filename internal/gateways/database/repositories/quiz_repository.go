package repositories

import (
	"context"
	"time"

	"github.com/jumanzarismoilov-jpg/botim/internal/gateways/database/models"
)

type QuizRepository struct{ base }

func (r *QuizRepository) Questions(ctx context.Context) ([]*models.QuizQuestion, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var qs []*models.QuizQuestion
	err := r.db.NewSelect().
		Model(&qs).
		Order("qq.id ASC").
		Scan(ctx)
	return qs, handleError("list", "quiz_question", nil, err)
}

func (r *QuizRepository) Question(ctx context.Context, id int64) (*models.QuizQuestion, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	q := new(models.QuizQuestion)
	if err := r.db.NewSelect().Model(q).Where("qq.id = ?", id).Scan(ctx); err != nil {
		return nil, handleError("get", "quiz_question", id, err)
	}
	return q, nil
}

// Unattempted lists questions the account has not attempted in [start, end).
func (r *QuizRepository) Unattempted(ctx context.Context, accountID int64, start, end time.Time) ([]*models.QuizQuestion, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	attempted := r.db.NewSelect().
		Model((*models.QuizAttempt)(nil)).
		Column("question_id").
		Where("account_id = ?", accountID).
		Where("created_at >= ?", start).
		Where("created_at < ?", end)

	var qs []*models.QuizQuestion
	err := r.db.NewSelect().
		Model(&qs).
		Where("qq.id NOT IN (?)", attempted).
		Order("qq.id ASC").
		Scan(ctx)
	return qs, handleError("unattempted", "quiz_question", accountID, err)
}

func (r *QuizRepository) InsertAttempt(ctx context.Context, a *models.QuizAttempt) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.NewInsert().Model(a).Returning("id").Exec(ctx)
	return handleError("insert", "quiz_attempt", a.AccountID, err)
}

func (r *QuizRepository) CountCorrect(ctx context.Context, accountID int64) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	n, err := r.db.NewSelect().
		Model((*models.QuizAttempt)(nil)).
		Where("account_id = ?", accountID).
		Where("correct = ?", true).
		Count(ctx)
	return n, handleError("count_correct", "quiz_attempt", accountID, err)
}

// UpsertQuestion keys catalog rows by question text.
func (r *QuizRepository) UpsertQuestion(ctx context.Context, q *models.QuizQuestion) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.db.NewInsert().
		Model(q).
		On("CONFLICT (question) DO UPDATE").
		Set("options = EXCLUDED.options").
		Set("correct = EXCLUDED.correct").
		Set("reward = EXCLUDED.reward").
		Exec(ctx)
	return handleError("upsert", "quiz_question", q.Question, err)
}
