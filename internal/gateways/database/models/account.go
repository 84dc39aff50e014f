package models

import (
	"time"

	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/uptrace/bun"
)

// Account is keyed by the chat user id. Balance is a cache of the sum of the
// account's ledger events and only changes inside a ledger transaction.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID            int64        `bun:"id,pk"`
	DisplayName   string       `bun:"display_name,nullzero"`
	Balance       money.Amount `bun:"balance,notnull,default:0"`
	LastBonusDate string       `bun:"last_bonus_date,nullzero"`
	Streak        int          `bun:"streak,notnull,default:0"`
	Banned        bool         `bun:"banned,notnull"`
	DailySent     money.Amount `bun:"daily_sent,notnull,default:0"`
	ReferredBy    int64        `bun:"referred_by,nullzero"`
	CreatedAt     time.Time    `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt     time.Time    `bun:"updated_at,notnull,default:current_timestamp"`
}

// Label is what leaderboards and notifications show for the account.
func (a *Account) Label() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return "#" + itoa(a.ID)
}
