// Package collection implements the meal list: it presents an existing set of
// custom meals, filters them by name, expands one at a time and gates deletes
// behind an explicit confirmation.
//
// The collection performs no I/O. The caller supplies meals plus loading and
// error flags through SetProps and receives delete intents through the
// callback passed to New. A failed delete comes back as Props.Error on the
// caller's next SetProps.
package collection

import (
	"cmp"
	"slices"
	"strings"
	"sync"

	"github.com/sakif/food-diary/internal/apperror"
	"github.com/sakif/food-diary/internal/model"
)

// Status is the presentation state of a View. Exactly one applies.
type Status int

const (
	StatusLoading Status = iota
	StatusError
	StatusEmpty
	StatusList
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusEmpty:
		return "empty"
	case StatusList:
		return "list"
	}
	return "unknown"
}

// Props is the caller-owned input.
type Props struct {
	Meals   []model.CustomMeal
	Loading bool
	Error   string
}

// View is everything a renderer needs. It is rebuilt on every call to View().
type View struct {
	Status Status
	Error  string

	// Meals is the input sorted newest first and filtered by Query.
	// Only meaningful for StatusList.
	Meals []model.CustomMeal
	// NoMatch is set when the list is non-empty but the filter matched nothing.
	NoMatch bool

	Query    string
	Expanded string // id of the expanded meal, "" when none

	// PendingDelete is the meal awaiting confirmation, nil when no prompt is open.
	PendingDelete *model.CustomMeal
}

// IsExpanded reports whether the meal with id is the expanded one.
func (v View) IsExpanded(id string) bool {
	return v.Expanded != "" && v.Expanded == id
}

// Collection holds view state for a meal list. Create one with New.
type Collection struct {
	mu       sync.Mutex
	onDelete func(mealID string)

	props Props

	query string
	// expanded is a single optional id, so at most one meal is ever expanded.
	expanded string
	pending  *model.CustomMeal
}

// New creates a collection. onDelete is invoked only by ConfirmDelete.
func New(onDelete func(mealID string)) *Collection {
	return &Collection{onDelete: onDelete}
}

// SetProps replaces the caller's input. Query, expansion and a pending delete
// prompt are kept as they are; call ResetView to clear them.
func (c *Collection) SetProps(p Props) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.props = Props{
		Meals:   slices.Clone(p.Meals),
		Loading: p.Loading,
		Error:   p.Error,
	}
}

// SetQuery sets the name filter.
func (c *Collection) SetQuery(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = text
}

// ToggleExpand expands mealID, or collapses it when it is already expanded.
// Expanding a meal collapses any other.
func (c *Collection) ToggleExpand(mealID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.expanded == mealID {
		c.expanded = ""
		return
	}
	c.expanded = mealID
}

// RequestDelete opens the confirmation prompt for mealID. Nothing is deleted
// until ConfirmDelete. An id that is not in the current meal set is rejected.
func (c *Collection) RequestDelete(mealID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.IndexFunc(c.props.Meals, func(m model.CustomMeal) bool { return m.ID == mealID })
	if i < 0 {
		return apperror.NotFound("meal", mealID)
	}
	meal := c.props.Meals[i]
	c.pending = &meal
	return nil
}

// ConfirmDelete hands the pending meal id to the delete callback once and
// closes the prompt. Without a pending delete it does nothing and returns false.
func (c *Collection) ConfirmDelete() bool {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return false
	}
	id := c.pending.ID
	c.pending = nil
	onDelete := c.onDelete
	c.mu.Unlock()

	if onDelete != nil {
		onDelete(id)
	}
	return true
}

// CancelDelete closes the prompt without deleting.
func (c *Collection) CancelDelete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

// ResetView clears the query, the expanded meal and any pending delete.
func (c *Collection) ResetView() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = ""
	c.expanded = ""
	c.pending = nil
}

// View derives the presentation from the current props and view state.
//
// Precedence: loading, then error, then empty input, then the list.
func (c *Collection) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		Query:    c.query,
		Expanded: c.expanded,
	}
	if c.pending != nil {
		pending := *c.pending
		v.PendingDelete = &pending
	}

	switch {
	case c.props.Loading:
		v.Status = StatusLoading
	case c.props.Error != "":
		v.Status = StatusError
		v.Error = c.props.Error
	case len(c.props.Meals) == 0:
		v.Status = StatusEmpty
	default:
		v.Status = StatusList
		v.Meals = Filter(SortNewestFirst(c.props.Meals), c.query)
		v.NoMatch = len(v.Meals) == 0
	}
	return v
}

// SortNewestFirst returns a copy of meals ordered by CreatedAt descending.
// Meals with equal timestamps keep their input order.
func SortNewestFirst(meals []model.CustomMeal) []model.CustomMeal {
	out := slices.Clone(meals)
	slices.SortStableFunc(out, func(a, b model.CustomMeal) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	return out
}

// Filter keeps meals whose name contains the trimmed query, ignoring case.
// A blank query keeps everything.
func Filter(meals []model.CustomMeal, query string) []model.CustomMeal {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return meals
	}
	out := make([]model.CustomMeal, 0, len(meals))
	for _, m := range meals {
		if strings.Contains(strings.ToLower(m.Name), q) {
			out = append(out, m)
		}
	}
	return out
}
