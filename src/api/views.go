package api

import (
	"context"
	"net/http"
	"time"

	"tradeledger/src/api/controllers"
	"tradeledger/src/api/handlers"
	"tradeledger/src/config"
	"tradeledger/src/database"
	"tradeledger/src/events"
	"tradeledger/src/realtime"
	"tradeledger/src/services"
	"tradeledger/src/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

type Server struct {
	Router  *chi.Mux
	Handler *handlers.Handler
	Config  *config.Config
	Logger  *logrus.Logger
	cleanup []func()
}

// NewServer connects to storage, seeds the price book and wires the event
// publishers: the realtime hub always, Kafka when brokers are configured.
func NewServer(cfg *config.Config, logger *logrus.Logger) (*Server, error) {
	secrets, err := database.SecretsFromConfig(cfg.Databases.SQL)
	if err != nil {
		return nil, err
	}
	db, closeDB, err := database.SetupDB(cfg, secrets, logger)
	if err != nil {
		return nil, err
	}
	server := &Server{
		Router:  chi.NewRouter(),
		Config:  cfg,
		Logger:  logger,
		cleanup: []func(){closeDB},
	}

	hub := realtime.NewHub()
	publishers := events.Fanout{hub}
	if len(cfg.Events.Kafka.Brokers) > 0 {
		kafka := events.NewKafkaPublisher(cfg.Events.Kafka.Brokers, cfg.Events.Kafka.Topic)
		publishers = append(publishers, kafka)
		server.cleanup = append([]func(){func() { _ = kafka.Close() }}, server.cleanup...)
	}

	ctx := utils.WithLogger(context.Background(), logger)
	svc, closeServices, err := services.NewServices(ctx, cfg, db, publishers)
	if err != nil {
		server.Close()
		return nil, err
	}
	server.cleanup = append([]func(){closeServices}, server.cleanup...)

	controller := controllers.NewController(svc.Accounts, svc.Reports, svc.Prices, cfg.Auth)
	server.Handler = handlers.NewHandler(controller, hub, cfg.Service.RequestTimeout)
	server.InitRoutes()
	return server, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) InitRoutes() {
	s.Router.Use(middleware.RequestID)
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(requestLogger(s.Logger))
	s.Router.Use(cors.New(cors.Options{
		AllowedOrigins:   s.Config.Service.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", handlers.IdempotencyKeyHeader},
		AllowCredentials: true,
	}).Handler)

	s.Router.Get("/alive", handlers.Healthcheck)
	s.Router.Post("/api/token", s.Handler.PostToken)

	s.Router.Group(func(r chi.Router) {
		if tokenAuth := s.Handler.Controller.TokenAuth; tokenAuth != nil {
			r.Use(jwtauth.Verifier(tokenAuth))
			r.Use(jwtauth.Authenticator)
		}

		r.Route("/api/accounts", func(r chi.Router) {
			r.Get("/", s.Handler.GetAllAccounts)
			r.Post("/", s.Handler.CreateAccount)
			r.Get("/{id}", s.Handler.GetAccount)
			r.Post("/{id}/deposits", s.Handler.PostDeposit)
			r.Post("/{id}/withdrawals", s.Handler.PostWithdrawal)
			r.Post("/{id}/buys", s.Handler.PostBuy)
			r.Post("/{id}/sells", s.Handler.PostSell)
			r.Get("/{id}/holdings", s.Handler.GetHoldings)
			r.Get("/{id}/summary", s.Handler.GetSummary)
			r.Get("/{id}/transactions", s.Handler.GetTransactions)
			r.Get("/{id}/transactions/{txID}", s.Handler.GetTransaction)
			r.Get("/{id}/trades/{symbol}", s.Handler.GetTradeHistory)
			r.Get("/{id}/performance", s.Handler.GetPerformance)
			r.Get("/{id}/performance/chart", s.Handler.GetPerformanceChart)
			r.Get("/{id}/statement", s.Handler.GetStatement)
		})

		r.Route("/api/prices", func(r chi.Router) {
			r.Get("/", s.Handler.GetPrices)
			r.Post("/", s.Handler.PostSymbol)
			r.Get("/{symbol}", s.Handler.GetPrice)
			r.Put("/{symbol}", s.Handler.PutPrice)
		})

		r.Get("/ws/accounts/{id}", s.Handler.StreamAccount)
	})
}

// Close releases the publishers, caches and database connections.
func (s *Server) Close() {
	for _, fn := range s.cleanup {
		fn()
	}
}

// requestLogger puts logger into the request context and logs every request
// once it completes.
func requestLogger(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(utils.WithLogger(r.Context(), logger)))

			logger.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Info("Request handled")
		})
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
