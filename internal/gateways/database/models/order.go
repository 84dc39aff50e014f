package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	OrderStatusNew  = "new"
	OrderStatusDone = "done"
)

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID        int64     `bun:"id,pk,autoincrement"`
	Ref       string    `bun:"ref,notnull,unique"`
	AccountID int64     `bun:"account_id,notnull"`
	Text      string    `bun:"text,notnull"`
	Status    string    `bun:"status,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}
