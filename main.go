// Entry point of the task service. Initializes configuration, the database
// pool, services and handlers, sets up the chi router and middleware, and runs
// the HTTP server with graceful shutdown.
//
// @title Task Service API
// @version 1.0
// @description Session-token gated task tracking service.
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @BasePath /
// @securityDefinitions.apikey TokenAuth
// @in header
// @name x-auth-token
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/user/taskserver-go/apperror"
	"github.com/user/taskserver-go/auth"
	"github.com/user/taskserver-go/background"
	"github.com/user/taskserver-go/db"
	_ "github.com/user/taskserver-go/docs" // generated swagger spec
	"github.com/user/taskserver-go/tasks"

	"github.com/user/taskserver-go/config"
)

func main() {
	// In development the .env file supplies the environment; in production the
	// variables are set directly and the file is simply absent.
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: .env file not found or error loading it: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	pool, err := db.NewPool(cfg.DB)
	if err != nil {
		log.Fatalf("failed to create database pool: %v", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(cfg.DB, "./migrations"); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Services own the business logic; handlers only translate HTTP.
	// Dependencies are injected by hand through the constructors.
	authStore := auth.NewPgStore(pool)
	authService := auth.NewService(authStore, *cfg.Auth)
	authHandlers := auth.NewHandlers(authService)

	taskStore := tasks.NewPgStore(pool)
	taskService := tasks.NewService(taskStore)
	taskHandlers := tasks.NewHandlers(taskService)

	// Background sweeper for dead sessions, stopped via channel close during
	// shutdown.
	sweeperStop := make(chan struct{})
	sweeperWg := background.StartSessionSweeper(authStore, sweeperStop)

	r := newRouter(authService, authHandlers, taskHandlers)

	// Swagger UI, served from the generated spec in the docs package.
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	addr := fmt.Sprintf(":%s", cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Block until SIGINT or SIGTERM, then shut down gracefully.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	close(sweeperStop)
	sweeperWg.Wait()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}
	log.Println("server stopped gracefully")
}

// newRouter assembles the chi router with the application middleware and all
// API routes. Split out from main so the end-to-end tests can drive the exact
// routing and middleware stack the binary uses.
func newRouter(authService *auth.Service, authHandlers *auth.Handlers, taskHandlers *tasks.Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Chi requires all middleware to be registered before any routes.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", auth.TokenHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Panic recovery that still answers with the standard apperror body.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				if rvr := recover(); rvr != nil {
					log.Printf("panic: %+v", rvr)
					writeError(ww, apperror.NewInternalError("internal server error", nil))
				}
			}()
			next.ServeHTTP(ww, r)
		})
	})

	// Registration and login are the only routes reachable without a token.
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/", authHandlers.HandleRegister())
		r.Post("/login", authHandlers.HandleLogin())
		r.Post("/logout", authHandlers.HandleLogout())
	})

	r.Route("/api/v1/tasks", func(r chi.Router) {
		r.Use(auth.Middleware(authService))
		taskHandlers.RegisterRoutes(r)
	})

	return r
}

// writeError answers with the standard error body from middleware, where no
// handler-level helper is in scope.
func writeError(w http.ResponseWriter, appErr *apperror.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())
	if err := json.NewEncoder(w).Encode(appErr.ToResponse()); err != nil {
		http.Error(w, `{"error":"failed to encode error response"}`, http.StatusInternalServerError)
	}
}
