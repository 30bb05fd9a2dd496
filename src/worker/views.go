package worker

import (
	"context"
	"fmt"
	"net/http"

	"tradeledger/src/config"
	"tradeledger/src/database"
	"tradeledger/src/events"
	"tradeledger/src/services"
	"tradeledger/src/utils"
	"tradeledger/src/worker/controllers"
	"tradeledger/src/worker/handlers"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type Server struct {
	Router  *chi.Mux
	Handler *handlers.Handler
	Config  *config.Config
	cleanup []func()
}

// NewServer connects the worker to storage and starts the configured
// snapshot schedule.
func NewServer(cfg *config.Config, logger *logrus.Logger) (*Server, error) {
	secrets, err := database.SecretsFromConfig(cfg.Databases.SQL)
	if err != nil {
		return nil, err
	}
	db, closeDB, err := database.SetupDB(cfg, secrets, logger)
	if err != nil {
		return nil, err
	}

	ctx := utils.WithLogger(context.Background(), logger)
	svc, closeServices, err := services.NewServices(ctx, cfg, db, events.NoopPublisher{})
	if err != nil {
		closeDB()
		return nil, err
	}

	controller := controllers.NewController(svc.Snapshots, logger)
	server := &Server{
		Router:  chi.NewRouter(),
		Handler: handlers.NewHandler(controller),
		Config:  cfg,
		cleanup: []func(){controller.Close, closeServices, closeDB},
	}

	if cfg.Worker.SnapshotCron != "" {
		if _, err := controller.ScheduleSnapshots(ctx, cfg.Worker.SnapshotCron, handlers.SnapshotRunTimeout); err != nil {
			server.Close()
			return nil, fmt.Errorf("failed to schedule snapshots: %w", err)
		}
	}

	server.InitRoutes()
	return server, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) InitRoutes() {
	s.Router.Use(middleware.RequestID)
	s.Router.Use(middleware.Recoverer)

	s.Router.Get("/alive", handlers.Healthcheck)
	s.Router.Route("/api/snapshots", func(r chi.Router) {
		r.Post("/all", s.Handler.SnapshotAllAccounts)
		r.Post("/{id}", s.Handler.SnapshotAccount)
	})
	s.Router.Route("/api/schedules", func(r chi.Router) {
		r.Get("/", s.Handler.GetSchedules)
		r.Put("/snapshots", s.Handler.ScheduleSnapshots)
	})
}

// Close stops the schedules and releases connections.
func (s *Server) Close() {
	for _, fn := range s.cleanup {
		fn()
	}
}

func NewHTTPServer(server *Server) *http.Server {
	httpServer := &http.Server{
		Addr:         ":" + server.Config.Service.Port,
		ReadTimeout:  server.Config.Service.ReadTimeout,
		WriteTimeout: server.Config.Service.WriteTimeout,
		Handler:      server,
	}
	return httpServer
}
