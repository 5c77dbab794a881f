// Package cart holds the operator's commerce cart. The cart is orthogonal
// to messaging: line items reference catalog products with a price snapshot
// taken at add-time, and every mutation is written through to durable
// storage so a restart restores it.
package cart

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/veigalabs/chatdesk/internal/bus"
)

// StorageKey is the fixed key the serialized cart lives under.
const StorageKey = "cart.v1"

// Storage is the durable side the cart writes through to.
type Storage interface {
	PutKV(key, value string) error
	GetKV(key string) (string, bool, error)
}

// LineItem is one cart entry, keyed by product id. UnitPrice is the price
// snapshot from the first add; later adds of the same product only bump
// the quantity.
type LineItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type snapshot struct {
	Items     []LineItem `json:"items"`
	Total     float64    `json:"total"`
	Timestamp int64      `json:"timestamp"`
}

// Cart is the persisted line-item collection.
type Cart struct {
	mu      sync.Mutex
	items   []LineItem
	storage Storage
	bus     *bus.Bus
}

// New creates an empty cart writing through to storage.
func New(storage Storage, b *bus.Bus) *Cart {
	return &Cart{storage: storage, bus: b}
}

// Load restores the cart from storage. A missing key is a fresh cart.
func (c *Cart) Load() error {
	raw, ok, err := c.storage.GetKV(StorageKey)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	if !ok {
		return nil
	}
	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return fmt.Errorf("decode cart: %w", err)
	}
	c.mu.Lock()
	c.items = snap.Items
	c.mu.Unlock()
	return nil
}

// Add puts qty units of a product in the cart. Adding a product already
// present merges into its existing line item; the original price snapshot
// is kept.
func (c *Cart) Add(productID, name string, unitPrice float64, qty int) error {
	if qty <= 0 {
		qty = 1
	}
	c.mu.Lock()
	merged := false
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Quantity += qty
			merged = true
			break
		}
	}
	if !merged {
		c.items = append(c.items, LineItem{
			ProductID: productID,
			Name:      name,
			UnitPrice: unitPrice,
			Quantity:  qty,
		})
	}
	err := c.persistLocked()
	c.mu.Unlock()

	if c.bus != nil {
		c.bus.Emit(bus.KindCartUpdated, productID)
	}
	return err
}

// Items returns a snapshot of the line items.
func (c *Cart) Items() []LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Total is the pure sum of price times quantity over all line items.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return total(c.items)
}

func total(items []LineItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.UnitPrice * float64(it.Quantity)
	}
	return sum
}

func (c *Cart) persistLocked() error {
	snap := snapshot{
		Items:     c.items,
		Total:     total(c.items),
		Timestamp: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := c.storage.PutKV(StorageKey, string(data)); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}
