package store

import (
	"context"
	"testing"
)

func TestShoppingPositionsFollowCreationOrder(t *testing.T) {
	db := setupTestDB(t)
	ss := NewShoppingStore(db)
	ctx := context.Background()
	h := newHousehold(t, db, "home", "u1")

	names := []string{"Milk", "Eggs", "Bread", "Apples"}
	for i, name := range names {
		item, err := ss.Create(ctx, h.ID, name, "")
		if err != nil {
			t.Fatalf("create %q: %v", name, err)
		}
		if item.Position != i {
			t.Errorf("%s position = %d, want %d", name, item.Position, i)
		}
	}

	items, err := ss.List(ctx, h.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, name := range names {
		if items[i].Name != name {
			t.Errorf("items[%d] = %q, want %q", i, items[i].Name, name)
		}
	}
}

func TestShoppingPositionsPerHousehold(t *testing.T) {
	db := setupTestDB(t)
	ss := NewShoppingStore(db)
	ctx := context.Background()
	a := newHousehold(t, db, "a", "u1")
	b := newHousehold(t, db, "b", "u2")

	ss.Create(ctx, a.ID, "Milk", "")
	ss.Create(ctx, a.ID, "Eggs", "")
	item, err := ss.Create(ctx, b.ID, "Coffee", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.Position != 0 {
		t.Errorf("position = %d, want 0", item.Position)
	}
}

func TestShoppingReorder(t *testing.T) {
	db := setupTestDB(t)
	ss := NewShoppingStore(db)
	ctx := context.Background()
	h := newHousehold(t, db, "home", "u1")

	milk, _ := ss.Create(ctx, h.ID, "Milk", "")
	eggs, _ := ss.Create(ctx, h.ID, "Eggs", "")
	bread, _ := ss.Create(ctx, h.ID, "Bread", "")

	moved, err := ss.Reorder(ctx, h.ID, []int64{bread.ID, milk.ID, eggs.ID})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if moved != 3 {
		t.Errorf("moved = %d, want 3", moved)
	}

	items, _ := ss.List(ctx, h.ID)
	want := []int64{bread.ID, milk.ID, eggs.ID}
	for i, id := range want {
		if items[i].ID != id {
			t.Errorf("items[%d].ID = %d, want %d", i, items[i].ID, id)
		}
		if items[i].Position != i {
			t.Errorf("items[%d].Position = %d, want %d", i, items[i].Position, i)
		}
	}

	next, _ := ss.Create(ctx, h.ID, "Butter", "")
	if next.Position != 3 {
		t.Errorf("position after reorder = %d, want 3", next.Position)
	}
}

func TestShoppingReorderPartialAndForeignIDs(t *testing.T) {
	db := setupTestDB(t)
	ss := NewShoppingStore(db)
	ctx := context.Background()
	h := newHousehold(t, db, "home", "u1")
	other := newHousehold(t, db, "other", "u2")

	a, _ := ss.Create(ctx, h.ID, "A", "")
	b, _ := ss.Create(ctx, h.ID, "B", "")
	c, _ := ss.Create(ctx, h.ID, "C", "")
	foreign, _ := ss.Create(ctx, other.ID, "Foreign", "")

	moved, err := ss.Reorder(ctx, h.ID, []int64{c.ID, foreign.ID, c.ID})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if moved != 1 {
		t.Errorf("moved = %d, want 1", moved)
	}

	items, _ := ss.List(ctx, h.ID)
	want := []int64{c.ID, a.ID, b.ID}
	for i, id := range want {
		if items[i].ID != id {
			t.Errorf("items[%d].ID = %d, want %d", i, items[i].ID, id)
		}
	}

	f, _ := ss.GetByID(ctx, other.ID, foreign.ID)
	if f.Position != 0 {
		t.Errorf("foreign position = %d, want 0", f.Position)
	}
}

func TestShoppingClearChecked(t *testing.T) {
	db := setupTestDB(t)
	ss := NewShoppingStore(db)
	ctx := context.Background()
	h := newHousehold(t, db, "home", "u1")

	milk, _ := ss.Create(ctx, h.ID, "Milk", "Dairy")
	ss.Create(ctx, h.ID, "Eggs", "Dairy")
	ss.SetChecked(ctx, h.ID, milk.ID, true)

	n, err := ss.ClearChecked(ctx, h.ID)
	if err != nil {
		t.Fatalf("clear checked: %v", err)
	}
	if n != 1 {
		t.Errorf("cleared = %d, want 1", n)
	}
	count, _ := ss.Count(ctx, h.ID)
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}
