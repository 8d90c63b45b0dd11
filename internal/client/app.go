package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MKhiriev/go-ledger-sync/internal/adapter"
	"github.com/MKhiriev/go-ledger-sync/internal/config"
	"github.com/MKhiriev/go-ledger-sync/internal/logger"
	"github.com/MKhiriev/go-ledger-sync/internal/service"
	"github.com/MKhiriev/go-ledger-sync/internal/store"
	"github.com/MKhiriev/go-ledger-sync/internal/workers"
	"github.com/MKhiriev/go-ledger-sync/models"
)

// probeInterval is how often the engine probes the server status endpoint
// to detect connectivity transitions.
const probeInterval = 30 * time.Second

// defaultJobInterval drives the background ticker when the user has not
// configured an interval of their own.
const defaultJobInterval = 5 * time.Minute

type App struct {
	services *service.ClientServices
	remote   adapter.RemoteEndpoint
	monitor  *service.ProbeMonitor
	cfg      *config.EngineConfig
	logger   *logger.Logger
}

func NewApp(cfg *config.EngineConfig, log *logger.Logger) (*App, error) {
	remote, err := adapter.NewHTTPRemoteEndpoint(cfg.Adapter, log)
	if err != nil {
		return nil, fmt.Errorf("create remote endpoint: %w", err)
	}

	storages, err := store.NewClientStorages(cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}

	ctx := log.WithContext(context.Background())
	if err := seedCleanupSettings(ctx, storages.Settings, cfg.Cleanup); err != nil {
		return nil, fmt.Errorf("seed cleanup settings: %w", err)
	}

	monitor := service.NewProbeMonitor(remote, probeInterval, log)
	fallback := models.SyncSettings{
		Enabled:   cfg.Sync.Enabled,
		Frequency: cfg.Sync.Frequency,
		Interval:  cfg.Sync.Interval,
		WifiOnly:  cfg.Sync.WifiOnly,
	}

	services, err := service.NewClientServices(ctx, storages, remote, monitor, fallback, log)
	if err != nil {
		return nil, fmt.Errorf("create engine services: %w", err)
	}

	return &App{
		services: services,
		remote:   remote,
		monitor:  monitor,
		cfg:      cfg,
		logger:   log,
	}, nil
}

// seedCleanupSettings persists the configured retention policy on first
// run. Settings the user already saved are left alone.
func seedCleanupSettings(ctx context.Context, settings store.SettingsRepository, cfg config.EngineCleanup) error {
	_, found, err := settings.LoadCleanupSettings(ctx)
	if err != nil || found {
		return err
	}
	if cfg.RetentionDays <= 0 {
		return nil
	}
	return settings.SaveCleanupSettings(ctx, models.CleanupSettings{
		AutoCleanup:   cfg.AutoCleanup,
		RetentionDays: cfg.RetentionDays,
	})
}

// Run starts the engine daemon: connectivity probing, the interval sync
// job and an initial pass when the policy allows one. It blocks until a
// termination signal arrives.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()
	ctx = a.logger.WithContext(ctx)

	a.authenticate(ctx)

	interval := a.cfg.Sync.Interval
	if interval <= 0 {
		interval = defaultJobInterval
	}

	background := workers.NewWorkers(
		newMonitorWorker(ctx, a.monitor),
		newSyncJobWorker(ctx, a.services.SyncJob, interval),
	)
	background.Run()
	defer background.Stop()

	a.initialSync(ctx)

	<-ctx.Done()
	a.logger.Info().Msg("engine shutdown requested")
	return nil
}

// authenticate obtains a bearer token using credentials from the
// environment. A missing account is registered on the fly. Without
// credentials the engine keeps queueing locally and every sync pass fails
// with 401 until a token is set.
func (a *App) authenticate(ctx context.Context) {
	login := os.Getenv("LEDGER_SYNC_LOGIN")
	password := os.Getenv("LEDGER_SYNC_PASSWORD")
	if login == "" || password == "" {
		a.logger.Warn().Msg("no credentials in environment, engine runs local-only until authenticated")
		return
	}

	user := models.User{Login: login, Password: password}
	token, err := a.remote.Login(ctx, user)
	if errors.Is(err, adapter.ErrUnauthorized) || errors.Is(err, adapter.ErrNotFound) {
		token, err = a.remote.Register(ctx, user)
	}
	if err != nil {
		a.logger.Warn().Err(err).Msg("authentication failed, engine runs local-only")
		return
	}

	a.remote.SetToken(token.SignedString)
	a.logger.Info().Int64("user_id", token.UserID).Msg("authenticated against sync server")
}

// initialSync runs one pass at startup when the policy is automatic and
// connectivity allows it. Failures are logged, never fatal.
func (a *App) initialSync(ctx context.Context) {
	settings := a.services.Orchestrator.Settings()
	if !settings.Enabled || settings.Frequency == models.FrequencyManual {
		return
	}
	if !a.services.Orchestrator.CanSync() {
		return
	}
	if err := a.services.Orchestrator.Sync(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("initial sync failed")
	}
}
