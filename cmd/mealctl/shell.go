package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/food-diary/internal/apperror"
	"github.com/sakif/food-diary/internal/collection"
	"github.com/sakif/food-diary/internal/composer"
	"github.com/sakif/food-diary/internal/model"
)

// backend is the part of foodclient.Client the shell uses.
type backend interface {
	composer.FoodLookup
	GetMeals(ctx context.Context) ([]model.CustomMeal, error)
	CreateMeal(ctx context.Context, req model.SaveMealRequest) (*model.CustomMeal, error)
	UpdateMeal(ctx context.Context, id string, req model.SaveMealRequest) (*model.CustomMeal, error)
	DeleteMeal(ctx context.Context, id string) error
}

const helpText = `meals:
  list              reload and show saved meals
  find [text]       filter meals by name (no text clears the filter)
  expand <n>        toggle details of meal n
  delete <n>        ask to delete meal n
  yes | no          confirm or cancel a pending delete
composer:
  new               start a new meal
  edit <n>          edit meal n
  name <text>       set the meal name
  search <text>     search foods
  results           show search results
  add <n>           add search result n
  qty <n> <amount>  set the servings of item n
  rm <n>            remove item n
  show              show the meal being composed
  save | cancel     save or discard the meal
help | quit`

type shell struct {
	// ctx is the session context; it ends on SIGINT or SIGTERM.
	ctx    context.Context
	client backend
	out    io.Writer
	logger *slog.Logger
	// debounce is passed to each composer; zero means the composer default.
	debounce time.Duration

	meals *collection.Collection
	props collection.Props

	// comp is the open composer, nil outside a compose session.
	comp  *composer.Composer
	saved *model.SaveMealRequest
}

func newShell(ctx context.Context, client backend, out io.Writer, logger *slog.Logger) *shell {
	s := &shell{ctx: ctx, client: client, out: out, logger: logger}
	s.meals = collection.New(s.deleteMeal)
	return s
}

// run reads commands from in until EOF, "quit" or the session context ends.
func (s *shell) run(in io.Reader) error {
	s.reload()
	s.printMeals()

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, s.prompt())
		if !scanner.Scan() {
			break
		}
		if s.ctx.Err() != nil {
			return nil
		}
		if !s.exec(scanner.Text()) {
			return nil
		}
	}
	return scanner.Err()
}

func (s *shell) prompt() string {
	if s.comp == nil {
		return "meals> "
	}
	return "meal> "
}

func (s *shell) close() {
	if s.comp != nil {
		s.comp.Close()
	}
}

// exec runs one command line. It returns false when the shell should exit.
func (s *shell) exec(line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "":
	case "help":
		fmt.Fprintln(s.out, helpText)
	case "quit", "exit":
		return false

	case "list":
		s.reload()
		s.printMeals()
	case "find":
		s.meals.SetQuery(arg)
		s.printMeals()
	case "expand":
		if m, ok := s.mealAt(arg); ok {
			s.meals.ToggleExpand(m.ID)
			s.printMeals()
		}
	case "delete":
		if m, ok := s.mealAt(arg); ok {
			if err := s.meals.RequestDelete(m.ID); err != nil {
				s.fail(err)
				return true
			}
			fmt.Fprintf(s.out, "Delete %q? (yes/no)\n", m.Name)
		}
	case "yes":
		if !s.meals.ConfirmDelete() {
			fmt.Fprintln(s.out, "nothing to confirm")
		}
	case "no":
		s.meals.CancelDelete()

	case "new":
		s.openComposer(nil)
	case "edit":
		if m, ok := s.mealAt(arg); ok {
			s.openComposer(&m)
		}

	default:
		if s.comp == nil {
			fmt.Fprintf(s.out, "unknown command %q, try help\n", cmd)
			return true
		}
		s.execComposer(cmd, arg)
	}
	return true
}

func (s *shell) execComposer(cmd, arg string) {
	switch cmd {
	case "name":
		s.comp.SetName(arg)
	case "search":
		s.comp.SetSearchQuery(arg)
	case "results":
		s.printResults()
	case "add":
		results := s.comp.State().Results
		i, ok := s.index(arg, len(results))
		if !ok {
			return
		}
		if err := s.comp.AddFood(results[i]); err != nil {
			s.fail(err)
			return
		}
		s.printComposer()
	case "qty":
		n, amount, _ := strings.Cut(arg, " ")
		i, ok := s.index(n, len(s.comp.State().Items))
		if !ok {
			return
		}
		if err := s.comp.SetQuantityText(i, strings.TrimSpace(amount)); err != nil {
			s.fail(err)
			return
		}
		s.printComposer()
	case "rm":
		i, ok := s.index(arg, len(s.comp.State().Items))
		if !ok {
			return
		}
		if err := s.comp.RemoveItem(i); err != nil {
			s.fail(err)
			return
		}
		s.printComposer()
	case "show":
		s.printComposer()
	case "save":
		s.save()
	case "cancel":
		s.comp.Cancel()
		s.closeComposer()
		s.printMeals()
	default:
		fmt.Fprintf(s.out, "unknown command %q, try help\n", cmd)
	}
}

// =========================================================================
// MEAL LIST
// =========================================================================

func (s *shell) reload() {
	s.props.Loading = true
	s.meals.SetProps(s.props)

	meals, err := s.client.GetMeals(s.ctx)
	s.props = collection.Props{Meals: meals}
	if err != nil {
		s.logger.Warn("loading meals failed", slog.String("error", err.Error()))
		s.props = collection.Props{Error: apperror.Message(err, "Failed to load meals")}
	}
	s.meals.SetProps(s.props)
}

// deleteMeal is the collection's delete callback; it runs once per
// confirmed prompt.
func (s *shell) deleteMeal(id string) {
	if err := s.client.DeleteMeal(s.ctx, id); err != nil {
		s.logger.Warn("deleting meal failed",
			slog.String("meal_id", id),
			slog.String("error", err.Error()),
		)
		s.props.Error = apperror.Message(err, "Failed to delete meal")
		s.meals.SetProps(s.props)
		s.printMeals()
		return
	}
	s.reload()
	s.printMeals()
}

// mealAt resolves a 1-based position in the currently displayed list.
func (s *shell) mealAt(arg string) (model.CustomMeal, bool) {
	view := s.meals.View()
	i, ok := s.index(arg, len(view.Meals))
	if !ok {
		return model.CustomMeal{}, false
	}
	return view.Meals[i], true
}

func (s *shell) printMeals() {
	view := s.meals.View()
	switch view.Status {
	case collection.StatusLoading:
		fmt.Fprintln(s.out, "Loading meals...")
		return
	case collection.StatusError:
		fmt.Fprintln(s.out, "Error:", view.Error)
		return
	case collection.StatusEmpty:
		fmt.Fprintln(s.out, "No saved meals yet. Type \"new\" to create one.")
		return
	}

	if view.NoMatch {
		fmt.Fprintf(s.out, "No meals match %q.\n", view.Query)
		return
	}
	for i, m := range view.Meals {
		fmt.Fprintf(s.out, "%2d. %-30s %s  (%d items, %s)\n",
			i+1, m.Name, formatTotals(m.Totals), len(m.Items), m.CreatedAt.Local().Format(time.DateTime))
		if view.IsExpanded(m.ID) {
			for _, it := range m.Items {
				printItem(s.out, "      ", it)
			}
		}
	}
}

// =========================================================================
// COMPOSER
// =========================================================================

func (s *shell) openComposer(existing *model.CustomMeal) {
	s.closeComposer()
	s.comp = composer.New(composer.Options{
		Lookup:   s.client,
		Logger:   s.logger,
		Debounce: s.debounce,
		OnSave: func(req model.SaveMealRequest) { s.saved = &req },
	}, existing)
	s.printComposer()
}

func (s *shell) closeComposer() {
	if s.comp != nil {
		s.comp.Close()
		s.comp = nil
	}
	s.saved = nil
}

func (s *shell) save() {
	s.saved = nil
	if err := s.comp.Save(); err != nil {
		s.fail(err)
		return
	}
	if s.saved == nil {
		return
	}

	var err error
	if id := s.comp.State().MealID; id != "" {
		_, err = s.client.UpdateMeal(s.ctx, id, *s.saved)
	} else {
		_, err = s.client.CreateMeal(s.ctx, *s.saved)
	}
	if err != nil {
		s.fail(err)
		return
	}

	s.closeComposer()
	s.reload()
	s.printMeals()
}

func (s *shell) printComposer() {
	st := s.comp.State()
	title := "New meal"
	if st.Editing() {
		title = "Editing meal"
	}
	fmt.Fprintf(s.out, "%s: %q\n", title, st.Name)
	if len(st.Items) == 0 {
		fmt.Fprintln(s.out, "  (no items, search and add foods)")
	}
	for i, it := range st.Items {
		printItem(s.out, fmt.Sprintf("  %d. ", i+1), it)
	}
	fmt.Fprintln(s.out, "  Total:", formatTotals(st.Totals))
	if st.Error != "" {
		fmt.Fprintln(s.out, "  !", st.Error)
	}
}

func (s *shell) printResults() {
	st := s.comp.State()
	switch {
	case st.IsSearching:
		fmt.Fprintln(s.out, "Searching...")
	case st.SearchError != "":
		fmt.Fprintln(s.out, st.SearchError)
		s.comp.DismissSearchError()
	case st.Query == "":
		fmt.Fprintln(s.out, "Type search <text> first.")
	case len(st.Results) == 0:
		fmt.Fprintf(s.out, "No foods match %q.\n", st.Query)
	}
	for i, f := range st.Results {
		mark := ""
		if f.IsCustom() {
			mark = " [my food]"
		}
		fmt.Fprintf(s.out, "%2d. %s%s  %s %s, %.0f cal\n",
			i+1, foodLabel(f), mark, formatNumber(f.ServingSize), f.ServingUnit, f.Calories)
	}
}

// =========================================================================
// HELPERS
// =========================================================================

// index parses a 1-based position and checks it against n.
func (s *shell) index(arg string, n int) (int, bool) {
	i, err := strconv.Atoi(arg)
	if err != nil || i < 1 || i > n {
		fmt.Fprintf(s.out, "expected a number between 1 and %d\n", n)
		return 0, false
	}
	return i - 1, true
}

func (s *shell) fail(err error) {
	if errors.Is(err, composer.ErrClosed) {
		fmt.Fprintln(s.out, "no meal is open")
		return
	}
	fmt.Fprintln(s.out, "Error:", apperror.Message(err, err.Error()))
}

func printItem(w io.Writer, prefix string, it model.MealLineItem) {
	label := foodLabel(it.Food)
	if it.IsDeleted {
		label += " (deleted)"
	}
	fmt.Fprintf(w, "%s%s x%s  %.0f cal\n", prefix, label, formatNumber(it.Quantity), it.Food.Calories*it.Quantity)
}

func foodLabel(f model.Food) string {
	if f.Brand != "" {
		return f.Name + " (" + f.Brand + ")"
	}
	return f.Name
}

func formatTotals(t model.Totals) string {
	t = t.Rounded()
	return fmt.Sprintf("%.0f cal  P %sg  C %sg  F %sg",
		t.Calories, formatNumber(t.ProteinG), formatNumber(t.CarbsG), formatNumber(t.FatG))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
