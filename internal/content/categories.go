package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Category is the display metadata of one category id.
type Category struct {
	ID    string
	Name  string
	Icon  string
	Color string
}

// CategoryTable maps content types to their categories, keeping the order in
// which the source document lists them.
type CategoryTable struct {
	byType map[ItemType][]Category
}

// NewCategoryTable builds a table from ordered per-type lists.
func NewCategoryTable(entries map[ItemType][]Category) CategoryTable {
	t := CategoryTable{byType: make(map[ItemType][]Category, len(entries))}
	for typ, cats := range entries {
		t.byType[typ] = append([]Category(nil), cats...)
	}
	return t
}

// List returns the categories of typ in source order.
func (t CategoryTable) List(typ ItemType) []Category {
	cats := t.byType[typ]
	if len(cats) == 0 {
		return []Category{}
	}
	return append([]Category(nil), cats...)
}

// Lookup finds category id under typ.
func (t CategoryTable) Lookup(typ ItemType, id string) (Category, bool) {
	for _, c := range t.byType[typ] {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// Label returns the display name of id, or "" when the table does not know it.
func (t CategoryTable) Label(typ ItemType, id string) string {
	c, _ := t.Lookup(typ, id)
	return c.Name
}

// Len counts categories across all types.
func (t CategoryTable) Len() int {
	n := 0
	for _, cats := range t.byType {
		n += len(cats)
	}
	return n
}

func (t CategoryTable) clone() CategoryTable {
	return NewCategoryTable(t.byType)
}

type rawCategory struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// UnmarshalJSON decodes {"<type>": {"<id>": {name, icon, color}}} without
// losing key order.
func (t *CategoryTable) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*t = CategoryTable{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("content: categories: expected object, got %v", tok)
	}
	table := CategoryTable{byType: map[ItemType][]Category{}}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		cats, err := decodeCategoryList(dec)
		if err != nil {
			return fmt.Errorf("content: categories %q: %w", key, err)
		}
		typ := ItemType(strings.ToLower(strings.TrimSpace(key)))
		table.byType[typ] = cats
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*t = table
	return nil
}

func decodeCategoryList(dec *json.Decoder) ([]Category, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}
	var cats []Category
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		id, _ := keyTok.(string)
		var raw rawCategory
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		cats = append(cats, Category{
			ID:    strings.TrimSpace(id),
			Name:  strings.TrimSpace(raw.Name),
			Icon:  strings.TrimSpace(raw.Icon),
			Color: strings.TrimSpace(raw.Color),
		})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return cats, nil
}
