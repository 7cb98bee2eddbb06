package model

import "time"

type AuditLog struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"householdId"`
	UserID      string    `json:"userId"`
	UserName    string    `json:"userName"`
	Action      string    `json:"action"`
	ItemType    string    `json:"itemType"`
	ItemName    string    `json:"itemName"`
	CreatedAt   time.Time `json:"createdAt"`
}
