package composer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/food-diary/internal/model"
)

// FoodLookup is the remote food search the composer depends on.
// foodclient.Client implements it.
type FoodLookup interface {
	SearchFoods(ctx context.Context, query string, limit int) ([]model.Food, error)
}

var errNoLookup = errors.New("composer: no food lookup configured")

// searchState is the search half of a Composer. Guarded by Composer.mu.
//
// LATEST WINS:
// gen increases on every keystroke, add and Close. A scheduled search
// remembers the generation it was created for and is dropped when that is no
// longer current. On top of that, every new keystroke stops the pending timer
// and cancels the context of an in-flight call, so superseded work is
// abandoned rather than left to race.
type searchState struct {
	query    string
	results  []model.Food
	err      string
	inFlight bool

	gen      uint64
	debounce *debouncer
	cancel   context.CancelFunc
}

// invalidate abandons pending and in-flight searches.
func (s *searchState) invalidate() {
	s.gen++
	s.debounce.cancel()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.inFlight = false
}

// SetSearchQuery updates the search box.
//
// A query shorter than the minimum length (2 characters after trimming)
// clears results and the search error right away and dispatches nothing.
// Otherwise one search is scheduled after the debounce quiet period,
// replacing any search scheduled or running for an earlier keystroke.
func (c *Composer) SetSearchQuery(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.search.query = text
	c.search.invalidate()

	q := strings.TrimSpace(text)
	if utf8.RuneCountInString(q) < c.minQuery {
		c.search.results = nil
		c.search.err = ""
		c.mu.Unlock()
		c.notify()
		return
	}

	gen := c.search.gen
	c.search.debounce.trigger(func() { c.runSearch(gen, q) })
	c.mu.Unlock()
	c.notify()
}

// DismissSearchError hides the inline search failure message.
func (c *Composer) DismissSearchError() {
	c.mu.Lock()
	if c.closed || c.search.err == "" {
		c.mu.Unlock()
		return
	}
	c.search.err = ""
	c.mu.Unlock()
	c.notify()
}

// resetSearchLocked empties the search box after a successful add.
func (c *Composer) resetSearchLocked() {
	c.search.invalidate()
	c.search.query = ""
	c.search.results = nil
	c.search.err = ""
}

// runSearch is the debounced task. It runs on the timer goroutine.
func (c *Composer) runSearch(gen uint64, query string) {
	c.mu.Lock()
	if c.closed || gen != c.search.gen {
		c.mu.Unlock()
		return
	}
	c.search.debounce.fired()
	ctx, cancel := context.WithCancel(context.Background())
	c.search.cancel = cancel
	c.search.inFlight = true
	lookup, limit := c.lookup, c.limit
	c.mu.Unlock()
	c.notify()

	c.logger.Debug("dispatching food search", slog.String("query", query), slog.Int("limit", limit))

	var (
		foods []model.Food
		err   error
	)
	if lookup == nil {
		err = errNoLookup
	} else {
		foods, err = lookup.SearchFoods(ctx, query, limit)
	}
	cancel()

	c.mu.Lock()
	if c.closed || gen != c.search.gen {
		c.mu.Unlock()
		c.logger.Debug("discarding stale food search", slog.String("query", query))
		return
	}
	c.search.cancel = nil
	c.search.inFlight = false
	if err != nil {
		c.search.results = nil
		c.search.err = MsgSearchFailed
	} else {
		c.search.results = foods
		c.search.err = ""
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("food search failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
	}
	c.notify()
}
