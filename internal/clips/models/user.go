package models

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionTrialing  SubscriptionStatus = "trialing"
	SubscriptionSuspended SubscriptionStatus = "suspended"
)

// User carries only what admission and usage accounting need; profile and
// authentication fields live with the excluded auth layer.
type User struct {
	ID                 uuid.UUID          `db:"id"`
	Email              string             `db:"email"`
	Plan               Plan               `db:"plan"`
	SubscriptionStatus SubscriptionStatus `db:"subscription_status"`

	VideosThisMonth int `db:"videos_this_month"`
	TotalVideos     int `db:"total_videos"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
