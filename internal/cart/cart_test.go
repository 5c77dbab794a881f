package cart

import (
	"path/filepath"
	"testing"

	"github.com/veigalabs/chatdesk/internal/bus"
	"github.com/veigalabs/chatdesk/internal/store"
)

func testStorage(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "cart.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestAddMergesByProductID(t *testing.T) {
	c := New(testStorage(t), bus.New())

	if err := c.Add("p1", "Blue Mug", 9.5, 1); err != nil {
		t.Fatal(err)
	}
	if err := c.Add("p1", "Blue Mug", 12.0, 1); err != nil {
		t.Fatal(err)
	}

	items := c.Items()
	if len(items) != 1 {
		t.Fatalf("line items = %d, want 1", len(items))
	}
	if items[0].Quantity != 2 {
		t.Errorf("quantity = %d, want 2", items[0].Quantity)
	}
	if items[0].UnitPrice != 9.5 {
		t.Errorf("price snapshot changed: %v", items[0].UnitPrice)
	}
}

func TestTotal(t *testing.T) {
	c := New(testStorage(t), nil)
	_ = c.Add("p1", "Mug", 9.5, 2)
	_ = c.Add("p2", "Shirt", 20, 1)
	if got := c.Total(); got != 39 {
		t.Errorf("total = %v, want 39", got)
	}
}

func TestPersistAndRestore(t *testing.T) {
	db := testStorage(t)

	c := New(db, nil)
	_ = c.Add("p1", "Mug", 9.5, 3)

	restored := New(db, nil)
	if err := restored.Load(); err != nil {
		t.Fatal(err)
	}
	items := restored.Items()
	if len(items) != 1 || items[0].Quantity != 3 || items[0].ProductID != "p1" {
		t.Errorf("restored = %+v", items)
	}
	if restored.Total() != 28.5 {
		t.Errorf("restored total = %v", restored.Total())
	}
}

func TestLoadFreshStorage(t *testing.T) {
	c := New(testStorage(t), nil)
	if err := c.Load(); err != nil {
		t.Fatal(err)
	}
	if len(c.Items()) != 0 {
		t.Error("fresh cart should be empty")
	}
}

func TestParseAddCommand(t *testing.T) {
	cases := []struct {
		in     string
		name   string
		wantOK bool
	}{
		{"add to cart Blue Mug", "Blue Mug", true},
		{"Add To Cart blue mug", "blue mug", true},
		{"  add to cart  espresso  ", "espresso", true},
		{"add to cart", "", false},
		{"add to cart ", "", false},
		{"please add to cart mug", "", false},
		{"hello there", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		name, ok := ParseAddCommand(tc.in)
		if ok != tc.wantOK || name != tc.name {
			t.Errorf("ParseAddCommand(%q) = %q,%v; want %q,%v", tc.in, name, ok, tc.name, tc.wantOK)
		}
	}
}
