// Package foodclient talks to the food diary backend over HTTP.
//
// Client satisfies composer.FoodLookup, so a MealComposer can search through
// it directly, and it carries the custom food and meal calls a host needs to
// load a MealCollection and persist saves and deletes.
//
// RETRIES:
// GET requests are idempotent and retried with exponential backoff on
// network errors and 5xx responses. 4xx responses are final. Writes are sent
// once; retrying a POST that timed out could create the meal twice.
//
// ERRORS:
// Backend error bodies are mapped back onto the apperror sentinels, so
// callers use errors.Is(err, apperror.ErrNotFound) the same way on both
// sides of the wire. Transport failures and 5xx become ErrUnavailable.
package foodclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/sakif/food-diary/internal/apperror"
	"github.com/sakif/food-diary/internal/composer"
	"github.com/sakif/food-diary/internal/handler"
	"github.com/sakif/food-diary/internal/model"
)

const (
	defaultTimeout         = 10 * time.Second
	defaultMaxTries        = 3
	defaultInitialInterval = 200 * time.Millisecond
)

var _ composer.FoodLookup = (*Client)(nil)

// Client is an HTTP client for the backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	maxTries        uint
	initialInterval time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRetry sets how many times a GET is attempted in total and the first
// backoff interval. maxTries of 1 disables retries.
func WithRetry(maxTries uint, initial time.Duration) Option {
	return func(c *Client) {
		c.maxTries = max(maxTries, 1)
		c.initialInterval = initial
	}
}

// New creates a Client for the backend at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		httpClient:      &http.Client{Timeout: defaultTimeout},
		logger:          slog.New(slog.DiscardHandler),
		maxTries:        defaultMaxTries,
		initialInterval: defaultInitialInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// =========================================================================
// FOODS
// =========================================================================

// SearchFoods searches custom and reference foods.
func (c *Client) SearchFoods(ctx context.Context, query string, limit int) ([]model.Food, error) {
	q := url.Values{}
	q.Set("q", query)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var res model.SearchResponse
	if err := c.get(ctx, "/api/foods/search?"+q.Encode(), &res); err != nil {
		return nil, err
	}
	return res.Results, nil
}

// GetCustomFoods lists every custom food.
func (c *Client) GetCustomFoods(ctx context.Context) ([]model.Food, error) {
	var foods []model.Food
	if err := c.get(ctx, "/api/custom-foods", &foods); err != nil {
		return nil, err
	}
	return foods, nil
}

// GetCustomFood fetches one custom food.
func (c *Client) GetCustomFood(ctx context.Context, id string) (*model.Food, error) {
	var food model.Food
	if err := c.get(ctx, "/api/custom-foods/"+url.PathEscape(id), &food); err != nil {
		return nil, err
	}
	return &food, nil
}

// CreateCustomFood creates a custom food.
func (c *Client) CreateCustomFood(ctx context.Context, in model.CustomFoodInput) (*model.Food, error) {
	var food model.Food
	if err := c.send(ctx, http.MethodPost, "/api/custom-foods", in, &food); err != nil {
		return nil, err
	}
	return &food, nil
}

// UpdateCustomFood sends a partial update.
func (c *Client) UpdateCustomFood(ctx context.Context, id string, in model.CustomFoodInput) (*model.Food, error) {
	var food model.Food
	if err := c.send(ctx, http.MethodPut, "/api/custom-foods/"+url.PathEscape(id), in, &food); err != nil {
		return nil, err
	}
	return &food, nil
}

// DeleteCustomFood removes a custom food.
func (c *Client) DeleteCustomFood(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/custom-foods/"+url.PathEscape(id), nil, nil)
}

// =========================================================================
// MEALS
// =========================================================================

// GetMeals lists meals, newest first.
func (c *Client) GetMeals(ctx context.Context) ([]model.CustomMeal, error) {
	var meals []model.CustomMeal
	if err := c.get(ctx, "/api/meals", &meals); err != nil {
		return nil, err
	}
	return meals, nil
}

// GetMeal fetches one meal.
func (c *Client) GetMeal(ctx context.Context, id string) (*model.CustomMeal, error) {
	var meal model.CustomMeal
	if err := c.get(ctx, "/api/meals/"+url.PathEscape(id), &meal); err != nil {
		return nil, err
	}
	return &meal, nil
}

// CreateMeal saves a new meal from a composer's save request.
func (c *Client) CreateMeal(ctx context.Context, req model.SaveMealRequest) (*model.CustomMeal, error) {
	var meal model.CustomMeal
	if err := c.send(ctx, http.MethodPost, "/api/meals", req, &meal); err != nil {
		return nil, err
	}
	return &meal, nil
}

// UpdateMeal overwrites a meal's name and items from a composer's save request.
func (c *Client) UpdateMeal(ctx context.Context, id string, req model.SaveMealRequest) (*model.CustomMeal, error) {
	body := model.UpdateMealRequest{Name: &req.Name, Items: &req.Items}

	var meal model.CustomMeal
	if err := c.send(ctx, http.MethodPut, "/api/meals/"+url.PathEscape(id), body, &meal); err != nil {
		return nil, err
	}
	return &meal, nil
}

// DeleteMeal removes a meal.
func (c *Client) DeleteMeal(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/meals/"+url.PathEscape(id), nil, nil)
}

// =========================================================================
// TRANSPORT
// =========================================================================

// get performs a GET with retries.
func (c *Client) get(ctx context.Context, path string, out any) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := c.do(ctx, http.MethodGet, path, nil, out)
		if err == nil || !retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		c.logger.Debug("retrying request",
			slog.String("path", path),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(c.maxTries))
	return err
}

// send performs a single non-idempotent request.
func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, method, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("foodclient: encoding request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("foodclient: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return apperror.Unavailable("food service is unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("foodclient: decoding %s %s: %w", method, path, err)
	}
	return nil
}

// decodeError turns an error response into an *apperror.AppError.
func decodeError(resp *http.Response) error {
	var body handler.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		body.Message = fmt.Sprintf("food service returned %s", resp.Status)
	}

	sentinel := sentinelFor(resp.StatusCode, body.Error)
	if sentinel == nil {
		return fmt.Errorf("foodclient: %s: %s", resp.Status, body.Message)
	}
	return &apperror.AppError{Err: sentinel, Message: body.Message}
}

func sentinelFor(status int, errorType string) error {
	switch errorType {
	case handler.ErrTypeValidation:
		return apperror.ErrValidation
	case handler.ErrTypeNotFound:
		return apperror.ErrNotFound
	case handler.ErrTypeConflict:
		return apperror.ErrConflict
	case handler.ErrTypeUnavailable:
		return apperror.ErrUnavailable
	}

	switch {
	case status == http.StatusBadRequest:
		return apperror.ErrValidation
	case status == http.StatusNotFound:
		return apperror.ErrNotFound
	case status == http.StatusConflict:
		return apperror.ErrConflict
	case status >= 500:
		return apperror.ErrUnavailable
	}
	return nil
}

// retryable reports whether a GET that failed with err may succeed if sent
// again.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, apperror.ErrUnavailable)
}
