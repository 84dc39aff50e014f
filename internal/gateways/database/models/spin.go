package models

import (
	"time"

	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/uptrace/bun"
)

type Spin struct {
	bun.BaseModel `bun:"table:spins,alias:s"`

	ID        int64        `bun:"id,pk,autoincrement"`
	AccountID int64        `bun:"account_id,notnull"`
	Reward    money.Amount `bun:"reward,notnull"`
	CreatedAt time.Time    `bun:"created_at,notnull"`
}
