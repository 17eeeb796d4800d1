// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pocket-bank/internal/events"
	"github.com/go-petr/pocket-bank/internal/ledgerdelivery"
	"github.com/go-petr/pocket-bank/internal/ledgerrepo"
	"github.com/go-petr/pocket-bank/internal/ledgerservice"
	"github.com/go-petr/pocket-bank/internal/middleware"
	"github.com/go-petr/pocket-bank/internal/sessiondelivery"
	"github.com/go-petr/pocket-bank/internal/sessionrepo"
	"github.com/go-petr/pocket-bank/internal/sessionservice"
	"github.com/go-petr/pocket-bank/internal/userdelivery"
	"github.com/go-petr/pocket-bank/internal/userrepo"
	"github.com/go-petr/pocket-bank/internal/userservice"
	"github.com/go-petr/pocket-bank/pkg/configpkg"
	"github.com/go-petr/pocket-bank/pkg/tokenpkg"
)

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB     *sql.DB
	Engine *gin.Engine
	Config configpkg.Config
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with instantiated domains and routes.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	userRepo := userrepo.NewRepoPGS(conn)
	ledgerRepo := ledgerrepo.NewRepoPGS(conn)
	sessionRepo := sessionrepo.NewRepoPGS(conn)

	tokenMaker, err := tokenpkg.NewPasetoMaker(config.TokenSymmetricKey)
	if err != nil {
		return nil, errors.New("cannot create token maker")
	}

	var publisher ledgerservice.Publisher = events.NopPublisher{}
	if len(config.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(config.KafkaBrokers)
	}

	userService := userservice.New(userRepo)

	ledgerService, err := ledgerservice.New(ledgerRepo, publisher, config)
	if err != nil {
		return nil, errors.New("cannot initialize ledger service")
	}

	sessionService, err := sessionservice.New(sessionRepo, config, tokenMaker)
	if err != nil {
		return nil, errors.New("cannot initialize session service")
	}

	userHandler := userdelivery.NewHandler(userService, sessionService)
	ledgerHandler := ledgerdelivery.NewHandler(ledgerService)
	sessionHandler := sessiondelivery.NewHandler(sessionService)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.POST("/users", userHandler.Create)
	engine.POST("/users/login", userHandler.Login)
	engine.POST("/sessions", sessionHandler.RenewAccessToken)

	authRoutes := engine.Group("/").Use(middleware.AuthMiddleware(sessionService.TokenMaker))

	authRoutes.GET("/balance", ledgerHandler.GetBalance)
	authRoutes.POST("/deposit", ledgerHandler.Deposit)
	authRoutes.POST("/withdraw", ledgerHandler.Withdraw)
	authRoutes.GET("/transactions", ledgerHandler.ListTransactions)

	server := &Server{
		DB:     conn,
		Engine: engine,
		Config: config,
	}

	return server, nil
}
