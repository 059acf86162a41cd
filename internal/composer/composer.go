// Package composer implements the meal composer: the stateful workflow that
// builds or edits one custom meal.
//
// STATE OWNERSHIP:
// A Composer owns the in-progress name, the ordered line items, the food
// search state and the validation message. Nothing else writes to it; a host
// drives it with user events (SetName, SetSearchQuery, AddFood, ...) and reads
// it back with State().
//
// DERIVED DATA:
// Nutrition totals are never stored. Totals() and State() recompute them from
// the current items with model.ComputeTotals on every call.
//
// CONCURRENCY:
// The only asynchronous step is the debounced food search (search.go). Its
// timer and the remote call finish on other goroutines, so all state sits
// behind one mutex and the caller's callbacks are invoked with the mutex
// released.
//
// LIFECYCLE:
// New creates a session, empty or seeded from an existing meal (edit mode).
// The caller converts the save request into a create or update call and then
// calls Close, which cancels any pending or in-flight search.
package composer

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sakif/food-diary/internal/apperror"
	"github.com/sakif/food-diary/internal/model"
)

const (
	DefaultDebounce       = 300 * time.Millisecond
	DefaultSearchLimit    = 10
	DefaultMinQueryLength = 2

	// MinQuantity is the smallest serving multiplier a line item can hold.
	MinQuantity = 0.01
)

// User-visible messages.
const (
	MsgNameRequired   = "Please enter a meal name"
	MsgNoItems        = "Please add at least one food to the meal"
	MsgSearchFailed   = "Failed to search foods. Please try again."
	msgNameTooLongFmt = "Meal name must be %d characters or less"
	msgAlreadyAddFmt  = "%s is already in this meal"
)

// ErrClosed is returned by mutating operations after Close.
var ErrClosed = errors.New("composer: closed")

// Options configures a Composer.
type Options struct {
	// Lookup answers food searches. Without one every search fails with
	// MsgSearchFailed.
	Lookup FoodLookup

	// OnSave receives the validated save request. Called at most once per
	// successful Save.
	OnSave func(model.SaveMealRequest)

	// OnCancel is invoked by Cancel.
	OnCancel func()

	// OnChange, if set, receives a fresh State after every state change,
	// including ones caused by a search completing in the background.
	OnChange func(State)

	Logger *slog.Logger

	Debounce       time.Duration // default DefaultDebounce
	SearchLimit    int           // default DefaultSearchLimit
	MinQueryLength int           // default DefaultMinQueryLength

	schedule scheduleFunc
}

// State is an immutable snapshot of a Composer for rendering.
type State struct {
	MealID      string // set in edit mode
	Name        string
	Items       []model.MealLineItem
	Totals      model.Totals
	Query       string
	Results     []model.Food
	IsSearching bool
	SearchError string
	Error       string // validation / duplicate message
}

// Editing reports whether the session edits an existing meal.
func (s State) Editing() bool {
	return s.MealID != ""
}

// Composer builds or edits a single meal. Create one with New.
type Composer struct {
	mu sync.Mutex

	lookup   FoodLookup
	onSave   func(model.SaveMealRequest)
	onCancel func()
	onChange func(State)
	logger   *slog.Logger
	limit    int
	minQuery int

	mealID string
	name   string
	// items is replaced, never mutated in place, so snapshots handed out by
	// State stay valid.
	items []model.MealLineItem

	search searchState
	// formErr holds the single validation or duplicate-add message.
	formErr string
	closed  bool
}

// New creates a composer. Pass nil for a new meal, or an existing meal to
// edit it; its name and line items (with their nutrition snapshots) seed the
// session.
func New(opts Options, existing *model.CustomMeal) *Composer {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = DefaultSearchLimit
	}
	if opts.MinQueryLength <= 0 {
		opts.MinQueryLength = DefaultMinQueryLength
	}

	c := &Composer{
		lookup:   opts.Lookup,
		onSave:   opts.OnSave,
		onCancel: opts.OnCancel,
		onChange: opts.OnChange,
		logger:   opts.Logger,
		limit:    opts.SearchLimit,
		minQuery: opts.MinQueryLength,
	}
	c.search.debounce = newDebouncer(opts.Debounce, opts.schedule)

	if existing != nil {
		c.mealID = existing.ID
		c.name = existing.Name
		c.items = slices.Clone(existing.Items)
	}
	return c
}

// SetName stores the name as typed. It is trimmed and length-checked only on Save.
func (c *Composer) SetName(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.name = text
	c.formErr = ""
	c.mu.Unlock()
	c.notify()
}

// AddFood appends food with quantity 1 and resets the search box.
//
// A food whose id is already in the meal is rejected: the error message is
// set, an ErrConflict error is returned and nothing else changes.
func (c *Composer) AddFood(food model.Food) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	for _, it := range c.items {
		if it.Food.ID == food.ID {
			msg := fmt.Sprintf(msgAlreadyAddFmt, food.Name)
			c.formErr = msg
			c.mu.Unlock()
			c.notify()
			return apperror.Duplicate("items", msg)
		}
	}

	c.items = append(slices.Clip(c.items), model.MealLineItem{Food: food, Quantity: 1})
	c.formErr = ""
	c.resetSearchLocked()
	c.mu.Unlock()

	c.logger.Debug("food added to meal",
		slog.String("food_id", food.ID),
		slog.String("name", food.Name),
	)
	c.notify()
	return nil
}

// SetQuantity sets the serving multiplier of the item at index.
// Values below MinQuantity, including zero, negatives, NaN and infinities,
// are stored as MinQuantity.
func (c *Composer) SetQuantity(index int, value float64) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if index < 0 || index >= len(c.items) {
		c.mu.Unlock()
		return apperror.ValidationFailed("index", fmt.Sprintf("no item at position %d", index))
	}

	items := slices.Clone(c.items)
	items[index].Quantity = clampQuantity(value)
	c.items = items
	c.mu.Unlock()
	c.notify()
	return nil
}

// SetQuantityText parses text typed into a quantity field. Anything that is
// not a number counts as 0 and is clamped like SetQuantity.
func (c *Composer) SetQuantityText(index int, text string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		v = 0
	}
	return c.SetQuantity(index, v)
}

func clampQuantity(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < MinQuantity {
		return MinQuantity
	}
	return v
}

// RemoveItem removes the item at index. The rest keep their order.
func (c *Composer) RemoveItem(index int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if index < 0 || index >= len(c.items) {
		c.mu.Unlock()
		return apperror.ValidationFailed("index", fmt.Sprintf("no item at position %d", index))
	}

	c.items = slices.Delete(slices.Clone(c.items), index, index+1)
	c.mu.Unlock()
	c.notify()
	return nil
}

// Totals recomputes the meal nutrition from the current items.
func (c *Composer) Totals() model.Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.ComputeTotals(c.items)
}

// Save validates the meal and hands the save request to OnSave.
//
// Checks run in order and stop at the first failure:
//  1. trimmed name is empty   → MsgNameRequired
//  2. no line items           → MsgNoItems
//  3. name longer than model.MaxMealNameLength characters
//
// On failure the message is recorded, a validation error is returned and
// OnSave is not called. On success OnSave is called exactly once with the
// trimmed name and {food_id, quantity} per item. Save never clears the
// composer; the caller decides what happens next.
func (c *Composer) Save() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	name := strings.TrimSpace(c.name)
	var verr *apperror.AppError
	switch {
	case name == "":
		verr = apperror.ValidationFailed("name", MsgNameRequired)
	case len(c.items) == 0:
		verr = apperror.ValidationFailed("items", MsgNoItems)
	case utf8.RuneCountInString(name) > model.MaxMealNameLength:
		verr = apperror.ValidationFailed("name", fmt.Sprintf(msgNameTooLongFmt, model.MaxMealNameLength))
	}
	if verr != nil {
		c.formErr = verr.Message
		c.mu.Unlock()
		c.notify()
		return verr
	}

	req := model.SaveMealRequest{
		Name:  name,
		Items: make([]model.MealItemRequest, len(c.items)),
	}
	for i, it := range c.items {
		req.Items[i] = model.MealItemRequest{FoodID: it.Food.ID, Quantity: it.Quantity}
	}
	c.formErr = ""
	onSave := c.onSave
	c.mu.Unlock()

	c.logger.Info("meal submitted",
		slog.String("meal_id", c.mealID),
		slog.String("name", name),
		slog.Int("items", len(req.Items)),
	)
	c.notify()
	if onSave != nil {
		onSave(req)
	}
	return nil
}

// Cancel forwards to OnCancel. Internal state is untouched.
func (c *Composer) Cancel() {
	if c.onCancel != nil {
		c.onCancel()
	}
}

// State returns a snapshot for rendering.
func (c *Composer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		MealID:      c.mealID,
		Name:        c.name,
		Items:       c.items,
		Totals:      model.ComputeTotals(c.items),
		Query:       c.search.query,
		Results:     c.search.results,
		IsSearching: c.search.inFlight,
		SearchError: c.search.err,
		Error:       c.formErr,
	}
}

// Close disposes of the composer: the pending debounce timer is stopped, an
// in-flight search is cancelled and its result will be dropped. Further
// mutations return ErrClosed or do nothing.
func (c *Composer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.search.invalidate()
}

func (c *Composer) notify() {
	if c.onChange == nil {
		return
	}
	c.onChange(c.State())
}
