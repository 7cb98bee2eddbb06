package model

import "time"

type Bill struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"householdId"`
	Name        string    `json:"name"`
	Amount      float64   `json:"amount"`
	DueDate     string    `json:"dueDate"`
	Category    string    `json:"category"`
	Checked     bool      `json:"checked"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Chore struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"householdId"`
	Name        string    `json:"name"`
	Assignee    string    `json:"assignee"`
	Description string    `json:"description"`
	Checked     bool      `json:"checked"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ShoppingItem struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"householdId"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Position    int       `json:"position"`
	Checked     bool      `json:"checked"`
	CreatedAt   time.Time `json:"createdAt"`
}

type MaintenanceItem struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"householdId"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Checked     bool      `json:"checked"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MonthlyTotal is one bucket of the rolling bills window.
type MonthlyTotal struct {
	Month string    `json:"month"`
	Start time.Time `json:"start"`
	Total float64   `json:"total"`
	Paid  float64   `json:"paid"`
}
