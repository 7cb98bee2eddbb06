// Package audit keeps the append-only log of household actions.
package audit

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dukerupert/hearth/internal/metrics"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

// PageSize is the number of entries returned per page.
const PageSize = 5

var ErrActionRequired = errors.New("action is required")

// Entry is an action to record.
type Entry struct {
	UserID   string
	UserName string
	Action   string
	ItemType string
	ItemName string
}

// Query selects one page of entries. Page is 1-based; User and Action are
// case-insensitive substring filters.
type Query struct {
	Page   int
	User   string
	Action string
}

type Page struct {
	Entries  []model.AuditLog `json:"entries"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

type Service struct {
	logs   *store.AuditLogStore
	logger *slog.Logger
}

func NewService(logs *store.AuditLogStore, logger *slog.Logger) *Service {
	return &Service{logs: logs, logger: logger}
}

func (s *Service) Append(ctx context.Context, householdID int64, e Entry) (*model.AuditLog, error) {
	if strings.TrimSpace(e.Action) == "" {
		return nil, ErrActionRequired
	}
	l, err := s.logs.Append(ctx, model.AuditLog{
		HouseholdID: householdID,
		UserID:      e.UserID,
		UserName:    e.UserName,
		Action:      strings.TrimSpace(e.Action),
		ItemType:    e.ItemType,
		ItemName:    e.ItemName,
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordAudit(e.ItemType)
	return l, nil
}

// Record appends an entry on behalf of a mutation that already succeeded.
// Failures are logged and counted, never returned.
func (s *Service) Record(ctx context.Context, householdID int64, e Entry) {
	if _, err := s.Append(ctx, householdID, e); err != nil {
		metrics.RecordSideEffectFailure("audit")
		s.logger.Error("append audit log", "household_id", householdID, "action", e.Action, "error", err)
	}
}

func (s *Service) Query(ctx context.Context, householdID int64, q Query) (*Page, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	entries, total, err := s.logs.Page(ctx, householdID, store.AuditFilter{
		User:   strings.TrimSpace(q.User),
		Action: strings.TrimSpace(q.Action),
	}, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.AuditLog{}
	}
	return &Page{Entries: entries, Total: total, Page: page, PageSize: PageSize}, nil
}
