package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Referral struct {
	bun.BaseModel `bun:"table:referrals,alias:r"`

	ID         int64     `bun:"id,pk,autoincrement"`
	ReferrerID int64     `bun:"referrer_id,notnull"`
	ReferredID int64     `bun:"referred_id,notnull,unique"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
}
