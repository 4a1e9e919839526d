package domain

import "time"

// Subscription is a waitlist opt-in.
type Subscription struct {
	ID        int64
	Email     string
	CreatedAt time.Time
}
