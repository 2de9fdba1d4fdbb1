package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/curamed/chartcache/internal/config"
	"github.com/curamed/chartcache/internal/observability"
	"github.com/curamed/chartcache/internal/queue"
	"github.com/curamed/chartcache/internal/remote"
	"github.com/curamed/chartcache/internal/repository"
)

// App is the application container (immutable dependencies + lifecycle
// context). It is not a request context; handlers use gin's request context.
type App struct {
	Config *config.Config
	Remote *remote.Client

	Patients     *repository.PatientRepository
	Appointments *repository.AppointmentRepository
	Suggestions  *repository.SuggestionRepository
	MasterData   *repository.MasterDataRepository
	Artifacts    *repository.ArtifactService
	Queue        *queue.Queue

	Metrics        observability.Metrics
	MetricsHandler http.Handler

	queueStore *queue.FileStore

	BaseCtx context.Context
	Cancel  context.CancelFunc
}

// New wires every component from the configuration.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())

	collector := observability.NewCollector("chartcache")
	client := remote.NewClient(cfg.Remote)

	queueStore, err := queue.NewFileStore(cfg.Queue.FilePath)
	if err != nil {
		cancel()
		return nil, err
	}

	uploadQueue := queue.NewQueue(queue.Options{
		Store:         queueStore,
		Uploader:      client,
		RetryInterval: cfg.Queue.RetryInterval,
		MaxAttempts:   cfg.Queue.MaxAttempts,
		Metrics:       collector,
	})

	patients := repository.NewPatientRepository(ctx, client, repository.PatientOptions{
		MaxEntries: cfg.Cache.PatientMaxEntries,
		TTL:        cfg.Cache.PatientTTL,
		Debounce:   cfg.Search.Debounce,
		Metrics:    collector,
	})
	appointments := repository.NewAppointmentRepository(client, repository.AppointmentOptions{
		MaxEntries: cfg.Cache.AppointmentMaxEntries,
		TTL:        cfg.Cache.AppointmentTTL,
		Metrics:    collector,
	})
	suggestions := repository.NewSuggestionRepository(client, repository.ListOptions{
		MaxEntries: cfg.Cache.SuggestionMaxEntries,
		TTL:        cfg.Cache.SuggestionTTL,
		Metrics:    collector,
	})
	masterData := repository.NewMasterDataRepository(client, repository.ListOptions{
		MaxEntries: cfg.Cache.MasterDataMaxEntries,
		TTL:        cfg.Cache.MasterDataTTL,
		Metrics:    collector,
	})
	artifacts := repository.NewArtifactService(client, uploadQueue)

	return &App{
		Config:         cfg,
		Remote:         client,
		Patients:       patients,
		Appointments:   appointments,
		Suggestions:    suggestions,
		MasterData:     masterData,
		Artifacts:      artifacts,
		Queue:          uploadQueue,
		Metrics:        collector,
		MetricsHandler: collector.Handler(),
		queueStore:     queueStore,
		BaseCtx:        ctx,
		Cancel:         cancel,
	}, nil
}

func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	a.Cancel()
}

// StartWatchers initializes the offline queue (load + retry loop) and the
// store-file watcher that reloads the queue when another writer touches it.
func (a *App) StartWatchers() error {
	a.Queue.Initialize(a.BaseCtx)

	return a.queueStore.StartWatcher(a.BaseCtx, func() {
		a.Queue.Reload(a.BaseCtx)
	})
}
