package models

import "github.com/uptrace/bun"

type AppMeta struct {
	bun.BaseModel `bun:"table:app_meta"`

	Key   string `bun:"key,pk"`
	Value string `bun:"value"`
}
