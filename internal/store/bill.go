package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/hearth/internal/model"
)

// DateLayout is the storage format of bill due dates.
const DateLayout = "2006-01-02"

type BillStore struct {
	db *sql.DB
}

func NewBillStore(db *sql.DB) *BillStore {
	return &BillStore{db: db}
}

func scanBill(scanner interface{ Scan(...any) error }) (*model.Bill, error) {
	var b model.Bill
	var checked int
	err := scanner.Scan(&b.ID, &b.HouseholdID, &b.Name, &b.Amount, &b.DueDate, &b.Category, &checked, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	b.Checked = checked != 0
	return &b, nil
}

const billCols = `id, household_id, name, amount, due_date, category, checked, created_at`

func (s *BillStore) List(ctx context.Context, householdID int64) ([]model.Bill, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+billCols+` FROM bills WHERE household_id = ? ORDER BY created_at DESC, id DESC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var bills []model.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		bills = append(bills, *b)
	}
	return bills, rows.Err()
}

func (s *BillStore) GetByID(ctx context.Context, householdID, id int64) (*model.Bill, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+billCols+` FROM bills WHERE id = ? AND household_id = ?`, id, householdID)
	b, err := scanBill(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get bill: %w", err)
	}
	return b, nil
}

func (s *BillStore) Create(ctx context.Context, householdID int64, name string, amount float64, dueDate, category string, checked bool) (*model.Bill, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO bills (household_id, name, amount, due_date, category, checked) VALUES (?, ?, ?, ?, ?, ?)`,
		householdID, name, amount, dueDate, category, boolToInt(checked),
	)
	if err != nil {
		return nil, fmt.Errorf("insert bill: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, householdID, id)
}

// Update replaces every editable field. It returns nil if no bill with the
// given id exists in the household.
func (s *BillStore) Update(ctx context.Context, householdID int64, b model.Bill) (*model.Bill, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE bills SET name = ?, amount = ?, due_date = ?, category = ?, checked = ?
		 WHERE id = ? AND household_id = ?`,
		b.Name, b.Amount, b.DueDate, b.Category, boolToInt(b.Checked), b.ID, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("update bill: %w", err)
	}
	if ok, err := affected(result); err != nil || !ok {
		return nil, err
	}
	return s.GetByID(ctx, householdID, b.ID)
}

func (s *BillStore) SetChecked(ctx context.Context, householdID, id int64, checked bool) (*model.Bill, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE bills SET checked = ? WHERE id = ? AND household_id = ?`,
		boolToInt(checked), id, householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("set bill checked: %w", err)
	}
	if ok, err := affected(result); err != nil || !ok {
		return nil, err
	}
	return s.GetByID(ctx, householdID, id)
}

// Delete removes a bill and returns it, or nil if it was not in the household.
func (s *BillStore) Delete(ctx context.Context, householdID, id int64) (*model.Bill, error) {
	b, err := s.GetByID(ctx, householdID, id)
	if err != nil || b == nil {
		return nil, err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM bills WHERE id = ? AND household_id = ?`, id, householdID)
	if err != nil {
		return nil, fmt.Errorf("delete bill: %w", err)
	}
	if ok, err := affected(result); err != nil || !ok {
		return nil, err
	}
	return b, nil
}

func (s *BillStore) Count(ctx context.Context, householdID int64) (int, error) {
	return countRows(ctx, s.db, "bills", householdID)
}

// MonthlyTotals sums bill amounts for the five months centred on now: two
// months back, the current month and two months ahead. Paid only counts
// checked bills.
func (s *BillStore) MonthlyTotals(ctx context.Context, householdID int64, now time.Time) ([]model.MonthlyTotal, error) {
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	totals := make([]model.MonthlyTotal, 0, 5)
	for offset := -2; offset <= 2; offset++ {
		start := current.AddDate(0, offset, 0)
		end := start.AddDate(0, 1, 0)

		mt := model.MonthlyTotal{
			Month: start.Format("Jan 2006"),
			Start: start,
		}
		err := s.db.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(amount), 0),
			        COALESCE(SUM(CASE WHEN checked = 1 THEN amount ELSE 0 END), 0)
			 FROM bills
			 WHERE household_id = ? AND due_date >= ? AND due_date < ?`,
			householdID, start.Format(DateLayout), end.Format(DateLayout),
		).Scan(&mt.Total, &mt.Paid)
		if err != nil {
			return nil, fmt.Errorf("sum bills for %s: %w", mt.Month, err)
		}
		totals = append(totals, mt)
	}
	return totals, nil
}

// affected reports whether the statement touched at least one row.
func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// countRows counts the rows of an item table that belong to householdID.
// table is always a constant from this package.
func countRows(ctx context.Context, db *sql.DB, table string, householdID int64) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE household_id = ?`, householdID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
