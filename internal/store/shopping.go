package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/hearth/internal/model"
)

type ShoppingStore struct {
	db *sql.DB
}

func NewShoppingStore(db *sql.DB) *ShoppingStore {
	return &ShoppingStore{db: db}
}

func scanShoppingItem(scanner interface{ Scan(...any) error }) (*model.ShoppingItem, error) {
	var item model.ShoppingItem
	var checked int
	err := scanner.Scan(&item.ID, &item.HouseholdID, &item.Name, &item.Category, &item.Position, &checked, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	item.Checked = checked != 0
	return &item, nil
}

const shoppingCols = `id, household_id, name, category, position, checked, created_at`

func (s *ShoppingStore) List(ctx context.Context, householdID int64) ([]model.ShoppingItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+shoppingCols+` FROM shopping_items WHERE household_id = ? ORDER BY position ASC, id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list shopping items: %w", err)
	}
	defer rows.Close()

	var items []model.ShoppingItem
	for rows.Next() {
		item, err := scanShoppingItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shopping item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *ShoppingStore) GetByID(ctx context.Context, householdID, id int64) (*model.ShoppingItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+shoppingCols+` FROM shopping_items WHERE id = ? AND household_id = ?`, id, householdID)
	item, err := scanShoppingItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shopping item: %w", err)
	}
	return item, nil
}

// Create appends an item at the end of the household's list. The next
// position is computed inside the INSERT so concurrent creates cannot
// observe the same maximum.
func (s *ShoppingStore) Create(ctx context.Context, householdID int64, name, category string) (*model.ShoppingItem, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO shopping_items (household_id, name, category, position)
		 SELECT ?, ?, ?, COALESCE(MAX(position), -1) + 1 FROM shopping_items WHERE household_id = ?`,
		householdID, name, category, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert shopping item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, householdID, id)
}

// Update replaces name, category and checked. Position only changes through
// Reorder.
func (s *ShoppingStore) Update(ctx context.Context, householdID int64, item model.ShoppingItem) (*model.ShoppingItem, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE shopping_items SET name = ?, category = ?, checked = ? WHERE id = ? AND household_id = ?`,
		item.Name, item.Category, boolToInt(item.Checked), item.ID, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("update shopping item: %w", err)
	}
	if ok, err := affected(result); err != nil || !ok {
		return nil, err
	}
	return s.GetByID(ctx, householdID, item.ID)
}

func (s *ShoppingStore) SetChecked(ctx context.Context, householdID, id int64, checked bool) (*model.ShoppingItem, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE shopping_items SET checked = ? WHERE id = ? AND household_id = ?`,
		boolToInt(checked), id, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("set shopping item checked: %w", err)
	}
	if ok, err := affected(result); err != nil || !ok {
		return nil, err
	}
	return s.GetByID(ctx, householdID, id)
}

func (s *ShoppingStore) Delete(ctx context.Context, householdID, id int64) (*model.ShoppingItem, error) {
	item, err := s.GetByID(ctx, householdID, id)
	if err != nil || item == nil {
		return nil, err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM shopping_items WHERE id = ? AND household_id = ?`, id, householdID)
	if err != nil {
		return nil, fmt.Errorf("delete shopping item: %w", err)
	}
	if ok, err := affected(result); err != nil || !ok {
		return nil, err
	}
	return item, nil
}

func (s *ShoppingStore) Count(ctx context.Context, householdID int64) (int, error) {
	return countRows(ctx, s.db, "shopping_items", householdID)
}

// Reorder assigns positions 0..n-1 to orderedIDs in the given order. Items of
// the household missing from orderedIDs keep their relative order after
// them; ids from other households are ignored. The whole batch is one
// transaction. It returns the number of listed items that were moved.
func (s *ShoppingStore) Reorder(ctx context.Context, householdID int64, orderedIDs []int64) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM shopping_items WHERE household_id = ? ORDER BY position ASC, id ASC`,
		householdID,
	)
	if err != nil {
		return 0, fmt.Errorf("list positions: %w", err)
	}
	var current []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan position: %w", err)
		}
		current = append(current, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("list positions: %w", err)
	}
	rows.Close()

	inHousehold := make(map[int64]bool, len(current))
	for _, id := range current {
		inHousehold[id] = true
	}

	order := make([]int64, 0, len(current))
	placed := make(map[int64]bool, len(current))
	for _, id := range orderedIDs {
		if inHousehold[id] && !placed[id] {
			order = append(order, id)
			placed[id] = true
		}
	}
	moved := len(order)
	for _, id := range current {
		if !placed[id] {
			order = append(order, id)
		}
	}

	for pos, id := range order {
		if _, err := tx.ExecContext(ctx,
			`UPDATE shopping_items SET position = ? WHERE id = ? AND household_id = ?`,
			pos, id, householdID,
		); err != nil {
			return 0, fmt.Errorf("set position: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return moved, nil
}

// ClearChecked removes every checked item of the household.
func (s *ShoppingStore) ClearChecked(ctx context.Context, householdID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM shopping_items WHERE household_id = ? AND checked = 1`,
		householdID,
	)
	if err != nil {
		return 0, fmt.Errorf("clear checked: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
