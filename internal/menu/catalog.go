package menu

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"bistro/internal/models"
)

var ErrDuplicateItem = errors.New("menu item already exists")

// Catalog is the menu, keyed by item name. Safe for concurrent use.
type Catalog struct {
	mu    sync.RWMutex
	items map[string]Item
	names []string
}

func NewCatalog() *Catalog {
	return &Catalog{items: make(map[string]Item)}
}

// Add validates and stores an item. Names are unique.
func (c *Catalog) Add(item Item) error {
	if err := validateItem(item); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[item.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateItem, item.Name)
	}
	c.items[item.Name] = item
	c.names = append(c.names, item.Name)
	return nil
}

func validateItem(item Item) error {
	if strings.TrimSpace(item.Name) == "" {
		return models.Invalid("name", "item name is required")
	}
	if item.Price.IsNegative() {
		return models.Invalid("price", "price must not be negative")
	}
	if !slices.Contains(Categories, item.Category) {
		return models.Invalid("category", fmt.Sprintf("unknown category %q", item.Category))
	}
	if item.SpiceLevel < 0 || item.SpiceLevel > 5 {
		return models.Invalid("spice_level", "spice level must be between 0 and 5")
	}
	return nil
}

// Remove deletes the named item and reports whether it existed
func (c *Catalog) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[name]; !ok {
		return false
	}
	delete(c.items, name)
	c.names = slices.DeleteFunc(c.names, func(n string) bool { return n == name })
	return true
}

func (c *Catalog) Get(name string) (Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[name]
	return item, ok
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// All returns every item in insertion order
func (c *Catalog) All() []Item {
	return c.Filter(func(Item) bool { return true })
}

// Filter returns the items matching keep, in insertion order
func (c *Catalog) Filter(keep func(Item) bool) []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Item, 0, len(c.names))
	for _, name := range c.names {
		if item := c.items[name]; keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func (c *Catalog) ByCategory(category Category) []Item {
	return c.Filter(func(i Item) bool { return i.Category == category })
}

func (c *Catalog) Available() []Item {
	return c.Filter(func(i Item) bool { return i.Available })
}

// PriceRange returns available items priced within [lo, hi]
func (c *Catalog) PriceRange(lo, hi decimal.Decimal) []Item {
	return c.Filter(func(i Item) bool {
		return i.Available && i.Price.GreaterThanOrEqual(lo) && i.Price.LessThanOrEqual(hi)
	})
}

// MaxSpice returns available items with spice level at most level
func (c *Catalog) MaxSpice(level int) []Item {
	return c.Filter(func(i Item) bool { return i.Available && i.SpiceLevel <= level })
}

// Search matches the query against names and descriptions, case-insensitively
func (c *Catalog) Search(query string) []Item {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	return c.Filter(func(i Item) bool {
		return strings.Contains(strings.ToLower(i.Name), q) ||
			strings.Contains(strings.ToLower(i.Description), q)
	})
}

func (c *Catalog) SetAvailability(name string, available bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[name]
	if !ok {
		return false
	}
	item.Available = available
	c.items[name] = item
	return true
}

// UpdatePrice changes an item's price. Orders already holding the item keep the old price.
func (c *Catalog) UpdatePrice(name string, price decimal.Decimal) error {
	if price.IsNegative() {
		return models.Invalid("price", "price must not be negative")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[name]
	if !ok {
		return models.Invalid("name", fmt.Sprintf("no menu item named %q", name))
	}
	item.Price = price
	c.items[name] = item
	return nil
}

// Stats summarises the catalog
type Stats struct {
	Total        int              `json:"total"`
	Available    int              `json:"available"`
	Unavailable  int              `json:"unavailable"`
	ByCategory   map[Category]int `json:"by_category"`
	MinPrice     decimal.Decimal  `json:"min_price"`
	MaxPrice     decimal.Decimal  `json:"max_price"`
	AveragePrice decimal.Decimal  `json:"average_price"`
	MedianPrice  decimal.Decimal  `json:"median_price"`
}

func (c *Catalog) Stats() Stats {
	items := c.All()
	stats := Stats{
		Total:      len(items),
		ByCategory: make(map[Category]int),
	}
	if len(items) == 0 {
		return stats
	}

	prices := make([]decimal.Decimal, 0, len(items))
	for _, item := range items {
		if item.Available {
			stats.Available++
		}
		stats.ByCategory[item.Category]++
		prices = append(prices, item.Price)
	}
	stats.Unavailable = stats.Total - stats.Available

	sort.Slice(prices, func(i, j int) bool { return prices[i].LessThan(prices[j]) })
	stats.MinPrice = prices[0]
	stats.MaxPrice = prices[len(prices)-1]
	stats.AveragePrice = decimal.Sum(prices[0], prices[1:]...).
		Div(decimal.NewFromInt(int64(len(prices)))).Round(2)

	mid := len(prices) / 2
	if len(prices)%2 == 0 {
		stats.MedianPrice = prices[mid-1].Add(prices[mid]).Div(decimal.NewFromInt(2)).Round(2)
	} else {
		stats.MedianPrice = prices[mid]
	}
	return stats
}
