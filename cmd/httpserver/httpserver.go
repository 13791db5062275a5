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

	"github.com/go-petr/pet-finance/internal/domain"
	"github.com/go-petr/pet-finance/internal/eventpkg"
	"github.com/go-petr/pet-finance/internal/middleware"
	"github.com/go-petr/pet-finance/internal/roledelivery"
	"github.com/go-petr/pet-finance/internal/rolerepo"
	"github.com/go-petr/pet-finance/internal/roleservice"
	"github.com/go-petr/pet-finance/internal/transactiondelivery"
	"github.com/go-petr/pet-finance/internal/transactionrepo"
	"github.com/go-petr/pet-finance/internal/transactionservice"
	"github.com/go-petr/pet-finance/internal/userdelivery"
	"github.com/go-petr/pet-finance/internal/userrepo"
	"github.com/go-petr/pet-finance/internal/userservice"
	"github.com/go-petr/pet-finance/pkg/configpkg"
	"github.com/go-petr/pet-finance/pkg/tokenpkg"
)

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB         *sql.DB
	Engine     *gin.Engine
	Config     configpkg.Config
	Users      *userservice.Service
	TokenMaker tokenpkg.Maker
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with instantiated domains and routes.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config, publisher eventpkg.Publisher) (*Server, error) {
	userRepo := userrepo.NewRepoPGS(conn)
	roleRepo := rolerepo.NewRepoPGS(conn)
	transactionRepo := transactionrepo.NewRepoPGS(conn, config.DBLockTimeout)

	tokenMaker, err := tokenpkg.NewMaker(config.TokenType, config.TokenSymmetricKey)
	if err != nil {
		return nil, errors.New("cannot create token maker")
	}

	transactionService := transactionservice.New(transactionRepo, publisher)
	userService := userservice.New(userRepo, roleRepo, transactionService)
	roleService := roleservice.New(roleRepo)

	userHandler := userdelivery.NewHandler(userService, transactionService, tokenMaker, config.AccessTokenDuration)
	roleHandler := roledelivery.NewHandler(roleService)
	transactionHandler := transactiondelivery.NewHandler(transactionService)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := transactiondelivery.RegisterValidations(v); err != nil {
			return nil, errors.New("cannot register transaction validators")
		}
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.POST("/users", userHandler.Register)
	engine.POST("/users/login", userHandler.Login)

	authRoutes := engine.Group("/").Use(middleware.AuthMiddleware(tokenMaker))

	authRoutes.GET("/users/me", userHandler.Me)

	authRoutes.POST("/transactions", transactionHandler.Create)
	authRoutes.GET("/transactions", transactionHandler.List)
	authRoutes.GET("/transactions/:id", transactionHandler.Get)
	authRoutes.PATCH("/transactions/:id", transactionHandler.Update)
	authRoutes.DELETE("/transactions/:id", transactionHandler.Delete)

	adminRoutes := engine.Group("/").Use(
		middleware.AuthMiddleware(tokenMaker),
		middleware.RequireRole(domain.RoleAdmin),
	)

	adminRoutes.GET("/users", userHandler.List)
	adminRoutes.GET("/users/:id", userHandler.Get)
	adminRoutes.PATCH("/users/:id", userHandler.Update)
	adminRoutes.DELETE("/users/:id", userHandler.Delete)
	adminRoutes.GET("/users/:id/audit", userHandler.Audit)
	adminRoutes.POST("/admin/users", userHandler.Create)

	adminRoutes.GET("/roles", roleHandler.List)
	adminRoutes.GET("/roles/:id", roleHandler.Get)
	adminRoutes.POST("/roles", roleHandler.Create)
	adminRoutes.PUT("/roles/:id", roleHandler.Update)
	adminRoutes.DELETE("/roles/:id", roleHandler.Delete)

	server := &Server{
		DB:         conn,
		Engine:     engine,
		Config:     config,
		Users:      userService,
		TokenMaker: tokenMaker,
	}

	return server, nil
}
