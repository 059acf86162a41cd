// Package server wires the backend together and runs it.
//
// COMPOSITION ROOT:
//
//	config → sqlite.DB ─┬→ FoodService → FoodHandler ─┐
//	                    └→ MealService → MealHandler ─┴→ chi router
//
// Every dependency is built here, in New. The rest of the codebase receives
// what it needs through constructors and never reaches for globals.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/food-diary/internal/config"
	"github.com/sakif/food-diary/internal/handler"
	"github.com/sakif/food-diary/internal/middleware"
	sqliteRepo "github.com/sakif/food-diary/internal/repository/sqlite"
	"github.com/sakif/food-diary/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server owns the router and the database connection. The connection is
// closed when Start returns.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database, seeds reference foods when configured, and
// builds the router.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if cfg.SeedReferenceFoods {
		added, err := db.SeedReferenceFoods(context.Background())
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("seeding reference foods: %w", err)
		}
		if added > 0 {
			logger.Info("reference foods seeded", slog.Int("added", added))
		}
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start calls it on the way out; tests that
// only use Handler call it themselves.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes registers middleware and routes.
//
//	GET    /api/foods/search?q=&limit=
//	GET    /api/custom-foods
//	POST   /api/custom-foods
//	GET    /api/custom-foods/{id}
//	PUT    /api/custom-foods/{id}
//	DELETE /api/custom-foods/{id}
//	GET    /api/meals
//	POST   /api/meals
//	GET    /api/meals/{id}
//	PUT    /api/meals/{id}
//	DELETE /api/meals/{id}
//
// Middleware runs in the order added. RequestID comes before Logger so the
// log line can carry the id.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	foodService := service.NewFoodService(s.db, s.config.SearchCacheTTL, s.logger)
	mealService := service.NewMealService(s.db, s.db, s.logger)

	foods := handler.NewFoodHandler(foodService, s.logger)
	meals := handler.NewMealHandler(mealService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/foods/search", foods.HandleSearch)

		r.Route("/custom-foods", func(r chi.Router) {
			r.Get("/", foods.HandleListCustom)
			r.Post("/", foods.HandleCreateCustom)
			r.Get("/{id}", foods.HandleGetCustom)
			r.Put("/{id}", foods.HandleUpdateCustom)
			r.Delete("/{id}", foods.HandleDeleteCustom)
		})

		r.Route("/meals", func(r chi.Router) {
			r.Get("/", meals.HandleList)
			r.Post("/", meals.HandleCreate)
			r.Get("/{id}", meals.HandleGet)
			r.Put("/{id}", meals.HandleUpdate)
			r.Delete("/{id}", meals.HandleDelete)
		})
	})
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
