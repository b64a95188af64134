// Package monolith provides the application container and module interface.
package monolith

import (
	"context"

	"github.com/fd1az/electrum-core/internal/config"
	"github.com/fd1az/electrum-core/internal/di"
	"github.com/fd1az/electrum-core/internal/logger"
	"github.com/fd1az/electrum-core/internal/store"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	Store() *store.Store
	Services() di.ServiceRegistry
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// app implements the Monolith interface.
type app struct {
	config    *config.Config
	logger    logger.LoggerInterface
	store     *store.Store
	container di.Container
}

// New creates a new Monolith instance and opens the local store.
func New(cfg *config.Config, log logger.LoggerInterface) (*app, error) {
	st, err := store.Open(cfg.Cache, log)
	if err != nil {
		return nil, err
	}
	return NewWithStore(cfg, log, st), nil
}

// NewWithStore creates a Monolith around an already opened store.
func NewWithStore(cfg *config.Config, log logger.LoggerInterface, st *store.Store) *app {
	container := di.NewContainer()

	// Register global services
	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("store", st)

	return &app{
		config:    cfg,
		logger:    log,
		store:     st,
		container: container,
	}
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) Store() *store.Store {
	return a.store
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all resources.
func (a *app) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
