package panels

import (
	"strings"
	"sync"
)

// Skill is an installable assistant capability
type Skill struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Usage       string `yaml:"usage" json:"usage"`
	Icon        string `yaml:"icon" json:"icon"`
	Category    string `yaml:"category" json:"category"`
	Installed   bool   `yaml:"installed" json:"installed"`
}

// StoreItem is an App Store listing
type StoreItem struct {
	ID          string  `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	Icon        string  `yaml:"icon" json:"icon"`
	Category    string  `yaml:"category" json:"category"`
	Rating      float64 `yaml:"rating" json:"rating"`
	Downloads   string  `yaml:"downloads" json:"downloads"`
	Installed   bool    `yaml:"installed" json:"installed"`
	Developer   string  `yaml:"developer" json:"developer"`
}

type installable interface {
	Skill | StoreItem
}

// AllCategories matches every category in Search
const AllCategories = "All"

// Catalog is a list of installable items keyed by id
type Catalog[T installable] struct {
	mu    sync.RWMutex
	items []T
	key   func(*T) (string, *bool)
	// text returns the category and the fields a search query matches
	text func(*T) (string, []string)
}

// NewSkills creates the skills marketplace. Searches match name and
// category.
func NewSkills(items []Skill) *Catalog[Skill] {
	return newCatalog(items,
		func(s *Skill) (string, *bool) { return s.ID, &s.Installed },
		func(s *Skill) (string, []string) { return s.Category, []string{s.Name, s.Category} },
	)
}

// NewStore creates the App Store. Searches match name and description.
func NewStore(items []StoreItem) *Catalog[StoreItem] {
	return newCatalog(items,
		func(s *StoreItem) (string, *bool) { return s.ID, &s.Installed },
		func(s *StoreItem) (string, []string) { return s.Category, []string{s.Name, s.Description} },
	)
}

func newCatalog[T installable](items []T, key func(*T) (string, *bool), text func(*T) (string, []string)) *Catalog[T] {
	return &Catalog[T]{items: append([]T(nil), items...), key: key, text: text}
}

// List returns every item
func (c *Catalog[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]T(nil), c.items...)
}

// Installed returns installed items only
func (c *Catalog[T]) Installed() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []T
	for i := range c.items {
		if _, on := c.key(&c.items[i]); *on {
			out = append(out, c.items[i])
		}
	}
	return out
}

// Search filters items by a case-insensitive substring query and an exact
// category. An empty query matches everything, as does an empty category
// or AllCategories. Results keep catalog order.
func (c *Catalog[T]) Search(query, category string) []T {
	query = strings.ToLower(strings.TrimSpace(query))
	anyCategory := category == "" || strings.EqualFold(category, AllCategories)

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := []T{}
	for i := range c.items {
		cat, fields := c.text(&c.items[i])
		if !anyCategory && !strings.EqualFold(cat, category) {
			continue
		}
		if query == "" || containsFold(fields, query) {
			out = append(out, c.items[i])
		}
	}
	return out
}

// Categories counts items per category
func (c *Catalog[T]) Categories() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]int)
	for i := range c.items {
		cat, _ := c.text(&c.items[i])
		out[cat]++
	}
	return out
}

func containsFold(fields []string, lowered string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), lowered) {
			return true
		}
	}
	return false
}

// ToggleInstall flips the installed flag of an item
func (c *Catalog[T]) ToggleInstall(itemID string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if k, on := c.key(&c.items[i]); k == itemID {
			*on = !*on
			return c.items[i], true
		}
	}
	var zero T
	return zero, false
}
