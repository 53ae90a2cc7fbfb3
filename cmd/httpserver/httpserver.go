// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/accountdelivery"
	"github.com/go-petr/pet-ledger/internal/accountrepo"
	"github.com/go-petr/pet-ledger/internal/accountservice"
	"github.com/go-petr/pet-ledger/internal/ledgerdelivery"
	"github.com/go-petr/pet-ledger/internal/ledgerrepo"
	"github.com/go-petr/pet-ledger/internal/ledgerservice"
	"github.com/go-petr/pet-ledger/internal/ledgerstore"
	"github.com/go-petr/pet-ledger/internal/middleware"
	"github.com/go-petr/pet-ledger/internal/queryservice"
	"github.com/go-petr/pet-ledger/internal/transactionrepo"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/moneypkg"
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

// Services groups the application services the routes are served by.
type Services struct {
	Accounts *accountservice.Service
	Ledger   *ledgerservice.Service
	Queries  *queryservice.Service
}

// NewServices wires the services over Postgres, or over an in-process store
// when the memory driver is configured.
func NewServices(conn *sql.DB, config configpkg.Config) (Services, error) {
	switch config.DBDriver {
	case configpkg.DriverMemory:
		store := ledgerstore.NewMemory()
		accountService := accountservice.New(store)

		return Services{
			Accounts: accountService,
			Ledger:   ledgerservice.New(store, accountService, config.LockTimeout),
			Queries:  queryservice.New(store, store),
		}, nil
	case configpkg.DriverPostgres:
		if conn == nil {
			return Services{}, errors.New("postgres driver requires a database connection")
		}

		accountRepo := accountrepo.NewRepoPGS(conn)
		transactionRepo := transactionrepo.NewRepoPGS(conn)
		accountService := accountservice.New(accountRepo)

		return Services{
			Accounts: accountService,
			Ledger:   ledgerservice.New(ledgerrepo.NewRepoPGS(conn), accountService, config.LockTimeout),
			Queries:  queryservice.New(accountRepo, transactionRepo),
		}, nil
	}

	return Services{}, errors.New("unsupported db driver: " + config.DBDriver)
}

// New creates Server type with instantiated domains and routes.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	services, err := NewServices(conn, config)
	if err != nil {
		return nil, err
	}

	accountHandler := accountdelivery.NewHandler(services.Accounts, services.Queries)
	ledgerHandler := ledgerdelivery.NewHandler(services.Ledger)

	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.POST("/accounts", accountHandler.Create)
	engine.GET("/accounts", accountHandler.List)
	engine.GET("/accounts/:id", accountHandler.Get)
	engine.GET("/accounts/:id/transactions", accountHandler.ListTransactions)
	engine.GET("/transactions", accountHandler.ListAll)

	engine.POST("/accounts/:id/deposits", ledgerHandler.Deposit)
	engine.POST("/accounts/:id/withdrawals", ledgerHandler.Withdraw)
	engine.POST("/accounts/:id/transfers", ledgerHandler.Transfer)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		err := v.RegisterValidation("amount", moneypkg.ValidAmount)
		if err != nil {
			return nil, errors.New("cannot register amount validator")
		}
	}

	server := &Server{
		DB:     conn,
		Engine: engine,
		Config: config,
	}

	return server, nil
}
