package model

import "time"

// Notification types, one per item domain that emits completions.
const (
	NotifTypeChores      = "chores"
	NotifTypeShopping    = "shopping"
	NotifTypeMaintenance = "maintenance"
)

type Notification struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"householdId"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"createdAt"`
}

type PushSubscription struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"householdId"`
	UserID      string    `json:"userId"`
	Endpoint    string    `json:"endpoint"`
	P256dhKey   string    `json:"p256dh"`
	AuthKey     string    `json:"auth"`
	CreatedAt   time.Time `json:"createdAt"`
}
