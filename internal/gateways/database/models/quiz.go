package models

import (
	"time"

	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/uptrace/bun"
)

type QuizQuestion struct {
	bun.BaseModel `bun:"table:quiz_questions,alias:qq"`

	ID        int64        `bun:"id,pk,autoincrement"`
	Question  string       `bun:"question,notnull,unique"`
	Options   []string     `bun:"options,type:jsonb"`
	Correct   int          `bun:"correct,notnull"`
	Reward    money.Amount `bun:"reward,notnull"`
	CreatedAt time.Time    `bun:"created_at,notnull,default:current_timestamp"`
}

type QuizAttempt struct {
	bun.BaseModel `bun:"table:quiz_attempts,alias:qa"`

	ID         int64     `bun:"id,pk,autoincrement"`
	AccountID  int64     `bun:"account_id,notnull"`
	QuestionID int64     `bun:"question_id,notnull"`
	Chosen     int       `bun:"chosen,notnull"`
	Correct    bool      `bun:"correct,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
}
