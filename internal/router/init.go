package router

import (
	"github.com/payvault/user-service/internal/application"
	"github.com/payvault/user-service/internal/container"
	"github.com/payvault/user-service/internal/infrastructure/postgres"
	"github.com/payvault/user-service/internal/infrastructure/search"
	handlers "github.com/payvault/user-service/internal/interface/http"
	"github.com/payvault/user-service/internal/interface/middleware"
	"github.com/payvault/user-service/internal/router/modules"
)

// InitModules wires repositories, services and handlers from the container
// and registers every feature module. Called once during startup.
func InitModules(r *Registry, c *container.Container) {
	userRepo := postgres.NewUserRepository(c.Pool)
	prefRepo := postgres.NewPreferenceRepository(c.Pool)

	// Interface fields must stay nil when the backend is absent; assigning a
	// nil concrete pointer would make them non-nil.
	var mail application.EmailEnqueuer
	if c.RabbitPub != nil {
		mail = c.RabbitPub
	}
	var userIndex *search.UserIndex
	var indexer application.UserIndexer
	if c.ES != nil {
		userIndex = search.NewUserIndex(c.ES, c.Cfg.ESUsersIndex, c.Logger)
		indexer = userIndex
	}

	authSvc := application.NewAuthService(userRepo, c.Cache, c.Codec, c.Logger, mail, indexer,
		c.Cfg.UserCacheTTL, c.Cfg.VerifyEmailURL)
	userSvc := application.NewUserService(userRepo, c.Cache, c.GCS, c.Cfg.GCSBucket, userIndex,
		c.Logger, c.Cfg.UserCacheTTL)
	prefSvc := application.NewPreferenceService(prefRepo, c.Logger)

	authn := middleware.Auth(c.Codec, authSvc)

	authHandler := handlers.NewAuthHandler(authSvc, c.Logger)
	emailHandler := handlers.NewEmailHandler(authSvc, c.Logger)
	userHandler := handlers.NewUserHandler(userSvc, authSvc, c.Logger)
	prefHandler := handlers.NewPreferenceHandler(prefSvc, c.Logger)

	r.Add(modules.NewAuthModule(authHandler, emailHandler, c.Cache, authn))
	r.Add(modules.NewUserModule(userHandler, c.Cache, authn))
	r.Add(modules.NewPreferenceModule(prefHandler, c.Cache, authn))
}
