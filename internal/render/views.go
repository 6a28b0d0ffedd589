package render

import (
	"io"
	"time"

	"kivlab.dev/portfolio-web/internal/content"
)

// Target names a page container and the fragment template that fills it.
// Fragment templates render their own wrapper element carrying the ID.
type Target struct {
	ID       string
	Template string
	// Placeholder shows the empty-state block when the list is empty.
	Placeholder bool
}

const (
	tmplItemList       = "fragment/item-list"
	tmplFilterControls = "fragment/filter-controls"
	tmplUpdates        = "fragment/updates"
)

var (
	TargetDIYList          = Target{ID: "diy-list", Template: tmplItemList, Placeholder: true}
	TargetFeaturedProjects = Target{ID: "featured-projects", Template: tmplItemList}
	TargetAllProjects      = Target{ID: "all-projects", Template: tmplItemList, Placeholder: true}
	TargetDIYFilters       = Target{ID: "diy-filters", Template: tmplFilterControls}
	TargetProjectFilters   = Target{ID: "project-filters", Template: tmplFilterControls}
	TargetUpdates          = Target{ID: "updates-grid", Template: tmplUpdates}
)

// FiltersTarget returns the filter-controls container of a section.
func FiltersTarget(typ content.ItemType) Target {
	if typ == content.TypeProject {
		return TargetProjectFilters
	}
	return TargetDIYFilters
}

// Card is the view of one item.
type Card struct {
	ID            string
	Type          content.ItemType
	Title         string
	Description   string
	TechStack     []string
	Features      []string
	Date          time.Time
	Category      string
	CategoryLabel string
	CategoryIcon  string
	CategoryColor string
	Icon          string
	Links         content.Links
	Featured      bool
	Href          string
	Lang          string
}

// NewCard builds the card for an item. Unknown categories leave the label empty.
func NewCard(it content.Item, cats content.CategoryTable) Card {
	card := Card{
		ID:          it.ID,
		Type:        it.Type,
		Title:       it.Title,
		Description: it.Description,
		TechStack:   append([]string(nil), it.TechStack...),
		Features:    append([]string(nil), it.Features...),
		Date:        it.Date,
		Category:    it.Category,
		Icon:        it.Icon,
		Links:       it.Links,
		Featured:    it.Featured,
		Href:        "/" + it.Type.Section() + "/" + it.ID,
	}
	if cat, ok := cats.Lookup(it.Type, it.Category); ok {
		card.CategoryLabel = cat.Name
		card.CategoryIcon = cat.Icon
		card.CategoryColor = cat.Color
	}
	return card
}

// ListView is the data handed to the item-list fragment.
type ListView struct {
	TargetID    string
	Lang        string
	Cards       []Card
	Placeholder bool
	OOB         bool
}

// ListOptions carries what a list needs besides the items.
type ListOptions struct {
	Categories content.CategoryTable
	Lang       string
	// OOB marks the fragment for an htmx out-of-band swap.
	OOB bool
}

// NewListView builds the view for items in the order given.
func NewListView(target Target, items []content.Item, opts ListOptions) ListView {
	cards := make([]Card, 0, len(items))
	for _, it := range items {
		card := NewCard(it, opts.Categories)
		card.Lang = opts.Lang
		cards = append(cards, card)
	}
	return ListView{
		TargetID:    target.ID,
		Lang:        opts.Lang,
		Cards:       cards,
		Placeholder: target.Placeholder,
		OOB:         opts.OOB,
	}
}

// RenderList replaces the target container with one card per item.
func (r *Renderer) RenderList(w io.Writer, target Target, items []content.Item, opts ListOptions) error {
	return r.fragment(w, target, NewListView(target, items, opts))
}

// Toggle is one filter button.
type Toggle struct {
	ID       string
	Label    string
	LabelKey string
	Icon     string
	Active   bool
}

// SortOption is one entry of the sort selector.
type SortOption struct {
	Key      content.SortKey
	LabelKey string
	Selected bool
}

// FilterControlsView is the data handed to the filter-controls fragment.
type FilterControlsView struct {
	TargetID string
	Lang     string
	Section  string
	Filter   string
	Toggles  []Toggle
	Sorts    []SortOption
	OOB      bool
}

// FilterOptions carries what the filter controls need besides the categories.
type FilterOptions struct {
	Type content.ItemType
	Lang string
	OOB  bool
}

// NewFilterControlsView builds "all" plus one toggle per category, in table
// order, with exactly the toggle matching state.Filter active. A filter that
// names no toggle leaves none active.
func NewFilterControlsView(target Target, categories []content.Category, state content.FilterState, opts FilterOptions) FilterControlsView {
	toggles := make([]Toggle, 0, len(categories)+1)
	toggles = append(toggles, Toggle{
		ID:       content.FilterAll,
		LabelKey: "filter.all",
		Icon:     "fas fa-list",
		Active:   state.Filter == content.FilterAll,
	})
	for _, cat := range categories {
		toggles = append(toggles, Toggle{
			ID:     cat.ID,
			Label:  cat.Name,
			Icon:   cat.Icon,
			Active: state.Filter == cat.ID,
		})
	}
	keys := content.SortKeys()
	sorts := make([]SortOption, 0, len(keys))
	for _, key := range keys {
		sorts = append(sorts, SortOption{
			Key:      key,
			LabelKey: "sort." + string(key),
			Selected: state.Sort == key,
		})
	}
	return FilterControlsView{
		TargetID: target.ID,
		Lang:     opts.Lang,
		Section:  opts.Type.Section(),
		Filter:   state.Filter,
		Toggles:  toggles,
		Sorts:    sorts,
		OOB:      opts.OOB,
	}
}

// RenderFilterControls renders the filter toggles and the sort selector.
func (r *Renderer) RenderFilterControls(w io.Writer, target Target, categories []content.Category, state content.FilterState, opts FilterOptions) error {
	return r.fragment(w, target, NewFilterControlsView(target, categories, state, opts))
}

// UpdatesView is the data handed to the updates fragment.
type UpdatesView struct {
	TargetID string
	Lang     string
	Updates  []content.Update
	// Degraded shows the retry affordance.
	Degraded bool
	RetryURL string
	OOB      bool
}

// UpdatesOptions carries what the updates grid needs besides the updates.
type UpdatesOptions struct {
	Lang     string
	RetryURL string
	OOB      bool
}

// NewUpdatesView builds the updates grid view.
func NewUpdatesView(target Target, updates []content.Update, status content.LoadStatus, opts UpdatesOptions) UpdatesView {
	retry := opts.RetryURL
	if retry == "" {
		retry = "/content/reload"
	}
	return UpdatesView{
		TargetID: target.ID,
		Lang:     opts.Lang,
		Updates:  append([]content.Update(nil), updates...),
		Degraded: status.Degraded(),
		RetryURL: retry,
		OOB:      opts.OOB,
	}
}

// RenderUpdates renders update cards; a degraded status adds a retry control.
func (r *Renderer) RenderUpdates(w io.Writer, target Target, updates []content.Update, status content.LoadStatus, opts UpdatesOptions) error {
	return r.fragment(w, target, NewUpdatesView(target, updates, status, opts))
}
