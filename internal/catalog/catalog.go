// Package catalog holds the training-direction catalog: the fixed set of
// "asset classes" the portfolio optimizer allocates across. The product
// ships six directions; the engine only ever sees the catalog's size and
// ordering, so the set is injected configuration rather than a compile-time
// constant.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Direction is one immutable training direction. IDs are 1-based and define
// the index order of every returns vector, covariance row, and weight
// vector in the system.
type Direction struct {
	ID          int               `json:"id" yaml:"id"`
	Key         string            `json:"key" yaml:"key"`
	Names       map[string]string `json:"names" yaml:"names"` // locale → display name
	Description string            `json:"description" yaml:"description"`
}

// Catalog is the ordered direction set shared by all components.
type Catalog struct {
	Directions []Direction `json:"directions" yaml:"directions"`
}

// Size returns the number of directions (the dimensionality of every
// portfolio computation).
func (c *Catalog) Size() int {
	return len(c.Directions)
}

// Keys returns the direction keys in catalog order.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.Directions))
	for i, d := range c.Directions {
		keys[i] = d.Key
	}
	return keys
}

// Validate checks the structural invariants: non-empty, 1-based sequential
// IDs matching slice order, unique non-empty keys, and at least one display
// name per direction.
func (c *Catalog) Validate() error {
	if len(c.Directions) == 0 {
		return fmt.Errorf("catalog has no directions")
	}
	seen := make(map[string]bool, len(c.Directions))
	for i, d := range c.Directions {
		if d.ID != i+1 {
			return fmt.Errorf("direction %q: id = %d, want %d (ids must be sequential in catalog order)", d.Key, d.ID, i+1)
		}
		if d.Key == "" {
			return fmt.Errorf("direction %d: empty key", d.ID)
		}
		if seen[d.Key] {
			return fmt.Errorf("duplicate direction key %q", d.Key)
		}
		seen[d.Key] = true
		if len(d.Names) == 0 {
			return fmt.Errorf("direction %q: no display names", d.Key)
		}
	}
	return nil
}

// LoadFile reads a catalog from a YAML file and validates it.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &c, nil
}

// Default returns the built-in six-direction catalog used when no catalog
// file is configured.
func Default() *Catalog {
	return &Catalog{Directions: []Direction{
		{
			ID:  1,
			Key: "digital",
			Names: map[string]string{
				"en": "Digitalization & Technology",
				"de": "Digitalisierung & Technologie",
			},
			Description: "Digital tools, automation, and technology adoption in the workplace.",
		},
		{
			ID:  2,
			Key: "data",
			Names: map[string]string{
				"en": "Data & Analytics",
				"de": "Daten & Analytik",
			},
			Description: "Data literacy, analytics, and evidence-based decision making.",
		},
		{
			ID:  3,
			Key: "leadership",
			Names: map[string]string{
				"en": "Leadership & Management",
				"de": "Führung & Management",
			},
			Description: "Leading teams, organizational change, and people management.",
		},
		{
			ID:  4,
			Key: "communication",
			Names: map[string]string{
				"en": "Communication & Collaboration",
				"de": "Kommunikation & Zusammenarbeit",
			},
			Description: "Interpersonal communication, teamwork, and cross-functional collaboration.",
		},
		{
			ID:  5,
			Key: "sustainability",
			Names: map[string]string{
				"en": "Sustainability & Transformation",
				"de": "Nachhaltigkeit & Transformation",
			},
			Description: "Sustainable work practices and navigating structural labor-market change.",
		},
		{
			ID:  6,
			Key: "innovation",
			Names: map[string]string{
				"en": "Innovation & Entrepreneurship",
				"de": "Innovation & Unternehmertum",
			},
			Description: "Creative problem solving, intrapreneurship, and new venture skills.",
		},
	}}
}
