package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/hearth/internal/model"
)

type MaintenanceStore struct {
	db *sql.DB
}

func NewMaintenanceStore(db *sql.DB) *MaintenanceStore {
	return &MaintenanceStore{db: db}
}

func scanMaintenanceItem(scanner interface{ Scan(...any) error }) (*model.MaintenanceItem, error) {
	var m model.MaintenanceItem
	var checked int
	err := scanner.Scan(&m.ID, &m.HouseholdID, &m.Title, &m.Category, &m.Description, &checked, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.Checked = checked != 0
	return &m, nil
}

const maintenanceCols = `id, household_id, title, category, description, checked, created_at`

func (s *MaintenanceStore) List(ctx context.Context, householdID int64) ([]model.MaintenanceItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+maintenanceCols+` FROM maintenance_items WHERE household_id = ? ORDER BY created_at DESC, id DESC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list maintenance items: %w", err)
	}
	defer rows.Close()

	var items []model.MaintenanceItem
	for rows.Next() {
		m, err := scanMaintenanceItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan maintenance item: %w", err)
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

func (s *MaintenanceStore) GetByID(ctx context.Context, householdID, id int64) (*model.MaintenanceItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+maintenanceCols+` FROM maintenance_items WHERE id = ? AND household_id = ?`, id, householdID)
	m, err := scanMaintenanceItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get maintenance item: %w", err)
	}
	return m, nil
}

func (s *MaintenanceStore) Create(ctx context.Context, householdID int64, title, category, description string) (*model.MaintenanceItem, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO maintenance_items (household_id, title, category, description) VALUES (?, ?, ?, ?)`,
		householdID, title, category, description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert maintenance item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, householdID, id)
}

func (s *MaintenanceStore) Update(ctx context.Context, householdID int64, m model.MaintenanceItem) (*model.MaintenanceItem, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE maintenance_items SET title = ?, category = ?, description = ?, checked = ? WHERE id = ? AND household_id = ?`,
		m.Title, m.Category, m.Description, boolToInt(m.Checked), m.ID, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("update maintenance item: %w", err)
	}
	if ok, err := affected(result); err != nil || !ok {
		return nil, err
	}
	return s.GetByID(ctx, householdID, m.ID)
}

func (s *MaintenanceStore) SetChecked(ctx context.Context, householdID, id int64, checked bool) (*model.MaintenanceItem, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE maintenance_items SET checked = ? WHERE id = ? AND household_id = ?`,
		boolToInt(checked), id, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("set maintenance item checked: %w", err)
	}
	if ok, err := affected(result); err != nil || !ok {
		return nil, err
	}
	return s.GetByID(ctx, householdID, id)
}

func (s *MaintenanceStore) Delete(ctx context.Context, householdID, id int64) (*model.MaintenanceItem, error) {
	m, err := s.GetByID(ctx, householdID, id)
	if err != nil || m == nil {
		return nil, err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM maintenance_items WHERE id = ? AND household_id = ?`, id, householdID)
	if err != nil {
		return nil, fmt.Errorf("delete maintenance item: %w", err)
	}
	if ok, err := affected(result); err != nil || !ok {
		return nil, err
	}
	return m, nil
}

func (s *MaintenanceStore) Count(ctx context.Context, householdID int64) (int, error) {
	return countRows(ctx, s.db, "maintenance_items", householdID)
}
