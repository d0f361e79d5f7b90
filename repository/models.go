package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the account model. Password holds the encoded hash, never the
// clear text, and is not serialized.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	Username      string     `bun:"username,notnull,unique" json:"username"`
	Email         string     `bun:"email,notnull,unique" json:"email"`
	Password      string     `bun:"password,notnull" json:"-"`
	Name          string     `bun:"name" json:"name"`
	Surname       string     `bun:"surname" json:"surname"`
	Fone          string     `bun:"fone" json:"fone"`
	Active        bool       `bun:"active,notnull" json:"active"`
	ActivatedAt   *time.Time `bun:"activated_at,nullzero" json:"activated_at,omitempty"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// Record is a user owned resource
type Record struct {
	bun.BaseModel `bun:"table:records,alias:rec"`
	ID            uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	UserID        int64     `bun:"user_id,notnull" json:"user_id"`
	Title         string    `bun:"title,notnull" json:"title"`
	Description   string    `bun:"description" json:"description"`
	Done          bool      `bun:"done,notnull" json:"done"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}
