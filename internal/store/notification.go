package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/hearth/internal/model"
)

type NotificationStore struct {
	db *sql.DB
}

func NewNotificationStore(db *sql.DB) *NotificationStore {
	return &NotificationStore{db: db}
}

func scanNotification(scanner interface{ Scan(...any) error }) (*model.Notification, error) {
	var n model.Notification
	var read int
	err := scanner.Scan(&n.ID, &n.HouseholdID, &n.Type, &n.Title, &n.Body, &read, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	n.Read = read != 0
	return &n, nil
}

const notificationCols = `id, household_id, type, title, body, read, created_at`

func (s *NotificationStore) Create(ctx context.Context, householdID int64, typ, title, body string) (*model.Notification, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (household_id, type, title, body) VALUES (?, ?, ?, ?)`,
		householdID, typ, title, body,
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+notificationCols+` FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

func (s *NotificationStore) List(ctx context.Context, householdID int64) ([]model.Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+notificationCols+` FROM notifications WHERE household_id = ? ORDER BY created_at DESC, id DESC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}

func (s *NotificationStore) CountUnread(ctx context.Context, householdID int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE household_id = ? AND read = 0`,
		householdID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

func (s *NotificationStore) Delete(ctx context.Context, householdID, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ? AND household_id = ?`, id, householdID)
	if err != nil {
		return false, fmt.Errorf("delete notification: %w", err)
	}
	return affected(result)
}

// Clear deletes every notification of the household.
func (s *NotificationStore) Clear(ctx context.Context, householdID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE household_id = ?`, householdID)
	if err != nil {
		return 0, fmt.Errorf("clear notifications: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// MarkRead flags one notification, or all of the household's when id is 0,
// as read without deleting them.
func (s *NotificationStore) MarkRead(ctx context.Context, householdID, id int64) (int64, error) {
	query := `UPDATE notifications SET read = 1 WHERE household_id = ? AND read = 0`
	args := []any{householdID}
	if id != 0 {
		query += ` AND id = ?`
		args = append(args, id)
	}
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
