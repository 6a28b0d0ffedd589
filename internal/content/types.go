package content

import (
	"strings"
	"time"
)

// ItemType partitions portfolio entries into DIY builds and coding projects.
type ItemType string

const (
	TypeDIY     ItemType = "diy"
	TypeProject ItemType = "project"
)

// ParseItemType normalises s and reports whether it names a known type.
func ParseItemType(s string) (ItemType, bool) {
	switch ItemType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeDIY:
		return TypeDIY, true
	case TypeProject:
		return TypeProject, true
	default:
		return "", false
	}
}

// Section returns the URL segment the type is served under.
func (t ItemType) Section() string {
	if t == TypeProject {
		return "projects"
	}
	return string(t)
}

// ParseSection maps a URL segment ("diy", "projects") back to its type.
func ParseSection(section string) (ItemType, bool) {
	switch strings.ToLower(strings.TrimSpace(section)) {
	case "diy":
		return TypeDIY, true
	case "projects":
		return TypeProject, true
	default:
		return "", false
	}
}

// Item is one portfolio entry.
type Item struct {
	ID          string
	Type        ItemType
	Title       string
	Description string
	TechStack   []string
	Features    []string
	Date        time.Time
	Category    string
	Icon        string
	Links       Links
	Featured    bool
}

// Links holds the optional outbound links of an item.
type Links struct {
	Demo          string
	GitHub        string
	Documentation string
}

// Empty reports whether no link is set.
func (l Links) Empty() bool {
	return l.Demo == "" && l.GitHub == "" && l.Documentation == ""
}

func cloneItem(it Item) Item {
	cp := it
	if it.TechStack != nil {
		cp.TechStack = append([]string(nil), it.TechStack...)
	}
	if it.Features != nil {
		cp.Features = append([]string(nil), it.Features...)
	}
	return cp
}

func cloneItems(src []Item) []Item {
	if len(src) == 0 {
		return []Item{}
	}
	out := make([]Item, len(src))
	for i, it := range src {
		out[i] = cloneItem(it)
	}
	return out
}

// SortKey selects the ordering applied by Store.Query.
type SortKey string

const (
	SortDate     SortKey = "date"
	SortTitle    SortKey = "title"
	SortCategory SortKey = "category"
)

// SortKeys lists the supported orderings in display order.
func SortKeys() []SortKey {
	return []SortKey{SortDate, SortTitle, SortCategory}
}

// ParseSortKey reports whether s is a supported sort key.
func ParseSortKey(s string) (SortKey, bool) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortDate:
		return SortDate, true
	case SortTitle:
		return SortTitle, true
	case SortCategory:
		return SortCategory, true
	default:
		return "", false
	}
}

// FilterAll is the filter value that selects every category.
const FilterAll = "all"

// FilterState is the user's current filter/sort selection for a section.
type FilterState struct {
	Filter string
	Sort   SortKey
}

// DefaultFilterState is the state of a freshly loaded page.
func DefaultFilterState() FilterState {
	return FilterState{Filter: FilterAll, Sort: SortDate}
}

// WithFilter returns a copy of s showing only the given category.
// An empty value selects all categories.
func (s FilterState) WithFilter(filter string) FilterState {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		filter = FilterAll
	}
	s.Filter = filter
	return s
}

// WithSort returns a copy of s ordered by key; unknown keys fall back to date.
func (s FilterState) WithSort(key string) FilterState {
	k, ok := ParseSortKey(key)
	if !ok {
		k = SortDate
	}
	s.Sort = k
	return s
}

// Update is one entry of the "recent updates" feed shown on the home page.
type Update struct {
	Type        string
	Title       string
	Description string
	Date        time.Time
	Link        string
}

var updateIcons = map[string]string{
	"diy":    "fas fa-tools",
	"code":   "fas fa-code",
	"design": "fas fa-palette",
	"blog":   "fas fa-edit",
}

// Icon returns the icon class for the update type.
func (u Update) Icon() string {
	if icon, ok := updateIcons[strings.ToLower(u.Type)]; ok {
		return icon
	}
	return "fas fa-info-circle"
}

// LoadSource tells whether a collection came from the configured resource or
// from the embedded fallback data.
type LoadSource string

const (
	SourceNone     LoadSource = ""
	SourceRemote   LoadSource = "remote"
	SourceFallback LoadSource = "fallback"
)

// LoadStatus describes the outcome of the most recent load.
type LoadStatus struct {
	Source   LoadSource
	Err      error
	LoadedAt time.Time
}

// Degraded reports whether the collection is running on fallback data.
func (s LoadStatus) Degraded() bool {
	return s.Source == SourceFallback
}
