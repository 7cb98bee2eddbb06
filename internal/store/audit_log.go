package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/hearth/internal/model"
)

type AuditLogStore struct {
	db *sql.DB
}

func NewAuditLogStore(db *sql.DB) *AuditLogStore {
	return &AuditLogStore{db: db}
}

func scanAuditLog(scanner interface{ Scan(...any) error }) (*model.AuditLog, error) {
	var l model.AuditLog
	err := scanner.Scan(&l.ID, &l.HouseholdID, &l.UserID, &l.UserName, &l.Action, &l.ItemType, &l.ItemName, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

const auditLogCols = `id, household_id, user_id, user_name, action, item_type, item_name, created_at`

// AuditFilter narrows a page of audit entries. Empty filters match everything.
type AuditFilter struct {
	User   string
	Action string
}

func (s *AuditLogStore) Append(ctx context.Context, l model.AuditLog) (*model.AuditLog, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_logs (household_id, user_id, user_name, action, item_type, item_name) VALUES (?, ?, ?, ?, ?, ?)`,
		l.HouseholdID, l.UserID, l.UserName, l.Action, l.ItemType, l.ItemName,
	)
	if err != nil {
		return nil, fmt.Errorf("insert audit log: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+auditLogCols+` FROM audit_logs WHERE id = ?`, id)
	created, err := scanAuditLog(row)
	if err != nil {
		return nil, fmt.Errorf("get audit log: %w", err)
	}
	return created, nil
}

// Page returns up to limit entries newest first, skipping offset, together
// with the number of entries matching the filter.
func (s *AuditLogStore) Page(ctx context.Context, householdID int64, f AuditFilter, limit, offset int) ([]model.AuditLog, int, error) {
	// casefold is registered by the database package.
	where := `household_id = ?`
	args := []any{householdID}
	if f.User != "" {
		where += ` AND casefold(user_name) LIKE ? ESCAPE '\'`
		args = append(args, containsPattern(strings.ToLower(f.User)))
	}
	if f.Action != "" {
		where += ` AND casefold(action) LIKE ? ESCAPE '\'`
		args = append(args, containsPattern(strings.ToLower(f.Action)))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+auditLogCols+` FROM audit_logs WHERE `+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []model.AuditLog
	for rows.Next() {
		l, err := scanAuditLog(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, *l)
	}
	return logs, total, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s anywhere, with s's own
// wildcards taken literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
