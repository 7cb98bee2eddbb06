package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/store"
)

func setup(t *testing.T) (*Service, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	h, _, err := store.NewHouseholdStore(db).CreateWithOwner(context.Background(), "home", "u1")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	return NewService(store.NewAuditLogStore(db), slog.Default()), h.ID
}

func TestQueryPagination(t *testing.T) {
	svc, householdID := setup(t)
	ctx := context.Background()

	for i := 1; i <= 12; i++ {
		_, err := svc.Append(ctx, householdID, Entry{
			UserID:   "u1",
			UserName: "Alice",
			Action:   fmt.Sprintf("action %d", i),
			ItemType: "chores",
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	first, err := svc.Query(ctx, householdID, Query{Page: 1})
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(first.Entries) != 5 {
		t.Fatalf("page 1 entries = %d, want 5", len(first.Entries))
	}
	for i, e := range first.Entries {
		want := fmt.Sprintf("action %d", 12-i)
		if e.Action != want {
			t.Errorf("page 1 entry %d = %q, want %q", i, e.Action, want)
		}
	}

	third, err := svc.Query(ctx, householdID, Query{Page: 3})
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(third.Entries) != 2 {
		t.Errorf("page 3 entries = %d, want 2", len(third.Entries))
	}

	for _, p := range []*Page{first, third} {
		if p.Total != 12 {
			t.Errorf("page %d total = %d, want 12", p.Page, p.Total)
		}
		if p.PageSize != PageSize {
			t.Errorf("page size = %d, want %d", p.PageSize, PageSize)
		}
	}

	beyond, _ := svc.Query(ctx, householdID, Query{Page: 4})
	if len(beyond.Entries) != 0 || beyond.Entries == nil {
		t.Errorf("page 4 entries = %v, want empty slice", beyond.Entries)
	}
}

func TestQueryPageBelowOne(t *testing.T) {
	svc, householdID := setup(t)
	svc.Append(context.Background(), householdID, Entry{UserName: "Alice", Action: "created"})

	p, err := svc.Query(context.Background(), householdID, Query{Page: -3})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if p.Page != 1 || len(p.Entries) != 1 {
		t.Errorf("page = %d entries = %d, want page 1 with 1 entry", p.Page, len(p.Entries))
	}
}

func TestQueryFilters(t *testing.T) {
	svc, householdID := setup(t)
	ctx := context.Background()

	svc.Append(ctx, householdID, Entry{UserName: "Alice", Action: "Created bill"})
	svc.Append(ctx, householdID, Entry{UserName: "Bob", Action: "Created chore"})
	svc.Append(ctx, householdID, Entry{UserName: "alice", Action: "Deleted chore"})

	tests := []struct {
		q    Query
		want int
	}{
		{Query{User: "ALICE"}, 2},
		{Query{Action: "created"}, 2},
		{Query{User: "alice", Action: "chore"}, 1},
		{Query{User: "  bob "}, 1},
		{Query{Action: "renamed"}, 0},
	}
	for _, tt := range tests {
		p, err := svc.Query(ctx, householdID, tt.q)
		if err != nil {
			t.Fatalf("query %+v: %v", tt.q, err)
		}
		if p.Total != tt.want {
			t.Errorf("total for %+v = %d, want %d", tt.q, p.Total, tt.want)
		}
	}
}

func TestQueryFiltersFoldNonASCII(t *testing.T) {
	svc, householdID := setup(t)
	ctx := context.Background()

	if _, err := svc.Append(ctx, householdID, Entry{UserName: "Élodie", Action: "ÉTEINT la lampe"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	svc.Append(ctx, householdID, Entry{UserName: "Bob", Action: "created"})

	tests := []struct {
		q    Query
		want int
	}{
		{Query{User: "élodie"}, 1},
		{Query{User: "ÉLODIE"}, 1},
		{Query{Action: "éteint"}, 1},
		{Query{User: "élo", Action: "LAMPE"}, 1},
		{Query{User: "elodie"}, 0},
	}
	for _, tt := range tests {
		p, err := svc.Query(ctx, householdID, tt.q)
		if err != nil {
			t.Fatalf("query %+v: %v", tt.q, err)
		}
		if p.Total != tt.want {
			t.Errorf("total for %+v = %d, want %d", tt.q, p.Total, tt.want)
		}
	}
}

func TestAppendRequiresAction(t *testing.T) {
	svc, householdID := setup(t)
	_, err := svc.Append(context.Background(), householdID, Entry{UserName: "Alice", Action: "  "})
	if !errors.Is(err, ErrActionRequired) {
		t.Errorf("err = %v, want ErrActionRequired", err)
	}
}

func TestRecordSwallowsErrors(t *testing.T) {
	svc, _ := setup(t)
	svc.Record(context.Background(), 999, Entry{Action: "created"})
}
