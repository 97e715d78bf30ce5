package menu

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Category is the fixed set of menu sections
type Category string

const (
	Appetizer Category = "appetizer"
	Entree    Category = "entree"
	Dessert   Category = "dessert"
	Beverage  Category = "beverage"
	Side      Category = "side"
)

// Categories lists every category in display order
var Categories = []Category{Appetizer, Entree, Dessert, Beverage, Side}

// ParseCategory maps user input to a Category. Plural and display forms are accepted.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "appetizer", "appetizers":
		return Appetizer, nil
	case "entree", "entrees", "main", "main_course", "main courses":
		return Entree, nil
	case "dessert", "desserts":
		return Dessert, nil
	case "beverage", "beverages", "drinks":
		return Beverage, nil
	case "side", "sides":
		return Side, nil
	default:
		return "", fmt.Errorf("unknown menu category: %q", s)
	}
}

// Item is a single dish or drink on the menu
type Item struct {
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Description   string          `json:"description,omitempty"`
	Category      Category        `json:"category"`
	Available     bool            `json:"available"`
	SpiceLevel    int             `json:"spice_level,omitempty"`
	CookingMethod string          `json:"cooking_method,omitempty"`
	Temperature   string          `json:"temperature,omitempty"`
	BeverageType  string          `json:"beverage_type,omitempty"`
}

var cookingAdjustments = map[string]int{
	"grilled": 5,
	"fried":   -2,
	"braised": 15,
	"roasted": 10,
	"steamed": -3,
}

// PrepTime returns the preparation time in minutes
func (i Item) PrepTime() int {
	switch i.Category {
	case Appetizer:
		t := 10
		if i.SpiceLevel > 2 {
			t += 2
		}
		return max(5, t)
	case Entree:
		t := 20 + cookingAdjustments[i.CookingMethod]
		if i.SpiceLevel > 3 {
			t += i.SpiceLevel
		}
		return max(10, t)
	case Dessert:
		switch i.Temperature {
		case "frozen":
			return 13
		case "hot":
			return 11
		}
		return 8
	case Beverage:
		switch i.BeverageType {
		case "coffee", "tea", "hot":
			return 3
		case "smoothie":
			return 4
		}
		return 1
	case Side:
		return 5
	default:
		return 0
	}
}

// Option customises an item built by one of the category constructors
type Option func(*Item)

// WithSpice sets the spice level, clamped to 0..5
func WithSpice(level int) Option {
	return func(i *Item) { i.SpiceLevel = min(max(level, 0), 5) }
}

func WithCookingMethod(method string) Option {
	return func(i *Item) { i.CookingMethod = strings.ToLower(method) }
}

func WithTemperature(temp string) Option {
	return func(i *Item) { i.Temperature = strings.ToLower(temp) }
}

func WithBeverageType(kind string) Option {
	return func(i *Item) { i.BeverageType = strings.ToLower(kind) }
}

// Unavailable marks the item as sold out
func Unavailable() Option {
	return func(i *Item) { i.Available = false }
}

func newItem(category Category, name, description string, price decimal.Decimal, opts []Option) Item {
	item := Item{
		Name:        name,
		Price:       price,
		Description: description,
		Category:    category,
		Available:   true,
	}
	for _, opt := range opts {
		opt(&item)
	}
	return item
}

func NewAppetizer(name, description string, price decimal.Decimal, opts ...Option) Item {
	return newItem(Appetizer, name, description, price, opts)
}

func NewMainCourse(name, description string, price decimal.Decimal, opts ...Option) Item {
	return newItem(Entree, name, description, price, opts)
}

func NewDessert(name, description string, price decimal.Decimal, opts ...Option) Item {
	return newItem(Dessert, name, description, price, opts)
}

func NewBeverage(name, description string, price decimal.Decimal, opts ...Option) Item {
	return newItem(Beverage, name, description, price, opts)
}

func NewSide(name, description string, price decimal.Decimal, opts ...Option) Item {
	return newItem(Side, name, description, price, opts)
}

// New builds an item for any category
func New(category Category, name, description string, price decimal.Decimal, opts ...Option) Item {
	return newItem(category, name, description, price, opts)
}
