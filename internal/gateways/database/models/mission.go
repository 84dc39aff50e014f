package models

import (
	"time"

	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/uptrace/bun"
)

// Mission conditions map a counter name to the minimum it must reach.
type Mission struct {
	bun.BaseModel `bun:"table:missions,alias:m"`

	ID          int64          `bun:"id,pk,autoincrement"`
	Code        string         `bun:"code,notnull,unique"`
	Title       string         `bun:"title,notnull"`
	Description string         `bun:"description,nullzero"`
	Reward      money.Amount   `bun:"reward,notnull"`
	Conditions  map[string]int `bun:"conditions,type:jsonb"`
	CreatedAt   time.Time      `bun:"created_at,notnull,default:current_timestamp"`
}

type MissionCompletion struct {
	bun.BaseModel `bun:"table:mission_completions,alias:mc"`

	ID          int64     `bun:"id,pk,autoincrement"`
	AccountID   int64     `bun:"account_id,notnull,unique:account_mission"`
	MissionID   int64     `bun:"mission_id,notnull,unique:account_mission"`
	CompletedAt time.Time `bun:"completed_at,notnull"`
}
