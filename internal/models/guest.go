package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Guest struct {
	bun.BaseModel `bun:"table:guests"`

	ID        string    `bun:"id,pk"`
	FullName  string    `bun:"full_name,notnull"`
	Phone     string    `bun:"phone,nullzero"`
	CreatedAt time.Time `bun:"created_at,nullzero"`
}
