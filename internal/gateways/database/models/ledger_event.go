package models

import (
	"strconv"
	"time"

	"github.com/jumanzarismoilov-jpg/botim/internal/domain/money"
	"github.com/uptrace/bun"
)

type EventKind string

const (
	KindBonus         EventKind = "bonus"
	KindReferral      EventKind = "referral"
	KindTransferOut   EventKind = "transfer_out"
	KindTransferIn    EventKind = "transfer_in"
	KindQuiz          EventKind = "quiz"
	KindSpin          EventKind = "spin"
	KindMissionReward EventKind = "mission_reward"
	KindAdminAdjust   EventKind = "admin_adjust"
	KindPenalty       EventKind = "penalty"
)

var EventKinds = []EventKind{
	KindBonus, KindReferral, KindTransferOut, KindTransferIn, KindQuiz,
	KindSpin, KindMissionReward, KindAdminAdjust, KindPenalty,
}

// LedgerEvent rows are append-only; ids increase monotonically per store.
type LedgerEvent struct {
	bun.BaseModel `bun:"table:ledger_events,alias:le"`

	ID        int64          `bun:"id,pk,autoincrement"`
	AccountID int64          `bun:"account_id,notnull"`
	Kind      EventKind      `bun:"kind,notnull"`
	Amount    money.Amount   `bun:"amount,notnull"`
	Reason    string         `bun:"reason,nullzero"`
	Metadata  map[string]any `bun:"metadata,type:jsonb"`
	CreatedAt time.Time      `bun:"created_at,notnull"`
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
