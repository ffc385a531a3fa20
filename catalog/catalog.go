// Package catalog serves the plant inventory backing the shop pages. The
// inventory ships embedded in the binary; there is no admin surface for it.
package catalog

import (
	_ "embed"
	"encoding/json"
	"sort"

	goerrors "github.com/goliatone/go-errors"
)

//go:embed plants.json
var plantsData []byte

// ErrPlantNotFound is returned when no plant carries the requested id.
var ErrPlantNotFound = goerrors.New("plant not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// Plant is a single catalog entry. Field names follow the wire format the
// storefront consumes.
type Plant struct {
	ID             int     `json:"plantId"`
	Name           string  `json:"plantName"`
	Category       string  `json:"category"`
	Price          float64 `json:"price"`
	Rating         float64 `json:"rating"`
	AvailableStock int     `json:"availableStock"`
	CareLevel      string  `json:"careLevel"`
	Description    string  `json:"description"`
	Image          string  `json:"image"`
	ProviderName   string  `json:"providerName"`
}

// InStock reports whether the plant can currently be ordered.
func (p Plant) InStock() bool {
	return p.AvailableStock > 0
}

// Catalog is the loaded plant inventory.
type Catalog struct {
	plants []Plant
	byID   map[int]int
}

// New loads the embedded inventory.
func New() (*Catalog, error) {
	return Load(plantsData)
}

// Load builds a catalog from raw inventory JSON.
func Load(data []byte) (*Catalog, error) {
	var plants []Plant
	if err := json.Unmarshal(data, &plants); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to parse plant inventory")
	}

	byID := make(map[int]int, len(plants))
	for i, p := range plants {
		byID[p.ID] = i
	}

	return &Catalog{plants: plants, byID: byID}, nil
}

// List returns every plant in catalog order.
func (c *Catalog) List() []Plant {
	out := make([]Plant, len(c.plants))
	copy(out, c.plants)
	return out
}

// Get returns the plant with the given id.
func (c *Catalog) Get(id int) (*Plant, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, ErrPlantNotFound.Clone().WithMetadata(map[string]any{
			"plant_id": id,
		})
	}

	plant := c.plants[i]
	return &plant, nil
}

// Categories returns the distinct categories, sorted.
func (c *Catalog) Categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range c.plants {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out
}

// ByCategory returns the plants in the given category, in catalog order.
func (c *Catalog) ByCategory(category string) []Plant {
	var out []Plant
	for _, p := range c.plants {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Featured returns the top n plants by rating.
func (c *Catalog) Featured(n int) []Plant {
	out := c.List()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rating > out[j].Rating
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
}
