package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/vision-relay/internal/domain"
)

// DefaultSlug names the entry built from the configured assistant id.
const DefaultSlug = "default"

// Catalog holds the assistants callers may pick by slug.
// It is read-only after construction and safe for concurrent use.
type Catalog struct {
	entries     []domain.Assistant
	bySlug      map[string]int
	defaultSlug string
}

type fileFormat struct {
	Default    string             `yaml:"default"`
	Assistants []domain.Assistant `yaml:"assistants"`
}

// New builds a catalog. defaultSlug may be empty, in which case the first
// entry is the default.
func New(defaultSlug string, entries []domain.Assistant) (*Catalog, error) {
	c := &Catalog{
		entries: make([]domain.Assistant, 0, len(entries)),
		bySlug:  make(map[string]int, len(entries)),
	}

	for _, a := range entries {
		a.Slug = strings.TrimSpace(a.Slug)
		if a.Slug == "" {
			return nil, errors.New("catalog: assistant without id")
		}
		if _, dup := c.bySlug[a.Slug]; dup {
			return nil, fmt.Errorf("catalog: duplicate assistant id %q", a.Slug)
		}
		if a.Name == "" {
			a.Name = a.Slug
		}
		c.bySlug[a.Slug] = len(c.entries)
		c.entries = append(c.entries, a)
	}

	switch {
	case defaultSlug != "":
		if _, ok := c.bySlug[defaultSlug]; !ok {
			return nil, fmt.Errorf("catalog: default assistant %q is not defined", defaultSlug)
		}
		c.defaultSlug = defaultSlug
	case len(c.entries) > 0:
		c.defaultSlug = c.entries[0].Slug
	}

	return c, nil
}

// LoadFile reads a YAML catalog. fallback is added under DefaultSlug when it
// carries a remote id and the file does not already define that slug; it
// becomes the default when the file names none.
//
//	default: senalizacion
//	assistants:
//	  - id: senalizacion
//	    assistant_id: asst_123
//	    name: Asistente de Señalización
//	    description: Identifica señales de tráfico.
func LoadFile(path string, fallback domain.Assistant) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}

	entries := f.Assistants
	def := f.Default
	if fallback.RemoteID != "" && !hasSlug(entries, DefaultSlug) {
		fallback.Slug = DefaultSlug
		entries = append([]domain.Assistant{fallback}, entries...)
		if def == "" {
			def = DefaultSlug
		}
	}

	return New(def, entries)
}

// FromAssistant builds a single-entry catalog.
func FromAssistant(a domain.Assistant) *Catalog {
	if a.Slug == "" {
		a.Slug = DefaultSlug
	}
	c, _ := New(a.Slug, []domain.Assistant{a})
	return c
}

func (c *Catalog) Lookup(slug string) (domain.Assistant, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return domain.Assistant{}, false
	}
	return c.entries[i], true
}

func (c *Catalog) Default() (domain.Assistant, bool) {
	if c.defaultSlug == "" {
		return domain.Assistant{}, false
	}
	return c.Lookup(c.defaultSlug)
}

// List returns a copy of the entries in file order.
func (c *Catalog) List() []domain.Assistant {
	out := make([]domain.Assistant, len(c.entries))
	copy(out, c.entries)
	return out
}

func hasSlug(entries []domain.Assistant, slug string) bool {
	for _, a := range entries {
		if strings.TrimSpace(a.Slug) == slug {
			return true
		}
	}
	return false
}
