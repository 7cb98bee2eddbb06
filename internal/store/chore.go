package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/hearth/internal/model"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	var checked int
	err := scanner.Scan(&c.ID, &c.HouseholdID, &c.Name, &c.Assignee, &c.Description, &checked, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.Checked = checked != 0
	return &c, nil
}

const choreCols = `id, household_id, name, assignee, description, checked, created_at`

func (s *ChoreStore) List(ctx context.Context, householdID int64) ([]model.Chore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+choreCols+` FROM chores WHERE household_id = ? ORDER BY created_at DESC, id DESC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) GetByID(ctx context.Context, householdID, id int64) (*model.Chore, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+choreCols+` FROM chores WHERE id = ? AND household_id = ?`, id, householdID)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

func (s *ChoreStore) Create(ctx context.Context, householdID int64, name, assignee, description string) (*model.Chore, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO chores (household_id, name, assignee, description) VALUES (?, ?, ?, ?)`,
		householdID, name, assignee, description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, householdID, id)
}

func (s *ChoreStore) Update(ctx context.Context, householdID int64, c model.Chore) (*model.Chore, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE chores SET name = ?, assignee = ?, description = ?, checked = ? WHERE id = ? AND household_id = ?`,
		c.Name, c.Assignee, c.Description, boolToInt(c.Checked), c.ID, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	if ok, err := affected(result); err != nil || !ok {
		return nil, err
	}
	return s.GetByID(ctx, householdID, c.ID)
}

func (s *ChoreStore) SetChecked(ctx context.Context, householdID, id int64, checked bool) (*model.Chore, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE chores SET checked = ? WHERE id = ? AND household_id = ?`,
		boolToInt(checked), id, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("set chore checked: %w", err)
	}
	if ok, err := affected(result); err != nil || !ok {
		return nil, err
	}
	return s.GetByID(ctx, householdID, id)
}

func (s *ChoreStore) Delete(ctx context.Context, householdID, id int64) (*model.Chore, error) {
	c, err := s.GetByID(ctx, householdID, id)
	if err != nil || c == nil {
		return nil, err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM chores WHERE id = ? AND household_id = ?`, id, householdID)
	if err != nil {
		return nil, fmt.Errorf("delete chore: %w", err)
	}
	if ok, err := affected(result); err != nil || !ok {
		return nil, err
	}
	return c, nil
}

func (s *ChoreStore) Count(ctx context.Context, householdID int64) (int, error) {
	return countRows(ctx, s.db, "chores", householdID)
}
