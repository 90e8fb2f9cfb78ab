package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/appraisal-portal/api"
	"github.com/frahmantamala/appraisal-portal/internal"
	"github.com/frahmantamala/appraisal-portal/internal/apiclient"
	"github.com/frahmantamala/appraisal-portal/internal/appraisal"
	"github.com/frahmantamala/appraisal-portal/internal/auth"
	"github.com/frahmantamala/appraisal-portal/internal/boss"
	"github.com/frahmantamala/appraisal-portal/internal/core/events"
	"github.com/frahmantamala/appraisal-portal/internal/employee"
	"github.com/frahmantamala/appraisal-portal/internal/guard"
	"github.com/frahmantamala/appraisal-portal/internal/hr"
	"github.com/frahmantamala/appraisal-portal/internal/manager"
	"github.com/frahmantamala/appraisal-portal/internal/navigation"
	"github.com/frahmantamala/appraisal-portal/internal/session"
	"github.com/frahmantamala/appraisal-portal/internal/transport"
	"github.com/frahmantamala/appraisal-portal/internal/transport/rest"
	"github.com/frahmantamala/appraisal-portal/internal/transport/web"
	"github.com/frahmantamala/appraisal-portal/internal/view"
	"github.com/frahmantamala/appraisal-portal/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the portal's HTTP server`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	Sessions *sessionBackend
	Registry *session.Registry
	Janitor  *session.Janitor
	Router   *chi.Mux
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := deps.Janitor.Start(deps.Config.Session.SweepSchedule); err != nil {
		deps.Logger.Error("failed to start session janitor", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "session_driver", deps.Config.Session.Driver)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.Janitor.Stop()
			_ = deps.Sessions.Close()
			os.Exit(1)
		}
	}

	deps.Janitor.Stop()
	if err := deps.Sessions.Close(); err != nil {
		deps.Logger.Error("Session storage close error", "error", err)
	}
	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.L()

	sessions, err := openSessionBackend(config.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to open session storage: %w", err)
	}

	client, err := newBackendClient(context.Background(), config.Backend, lg)
	if err != nil {
		_ = sessions.Close()
		return nil, err
	}

	bus := events.NewEventBus(lg)
	registry := session.NewRegistry(sessions.Storage, bus, lg)
	tracker := guard.NewTracker(lg)
	tracker.Subscribe(bus)
	janitor := session.NewJanitor(sessions.Sweeper, registry, bus, config.Session.IdleTTL, lg)

	menu := navigation.Default()
	notices := view.NewNotices()
	renderer, err := web.NewRenderer(menu, notices, lg)
	if err != nil {
		_ = sessions.Close()
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	base := transport.NewBaseHandler(lg, renderer, notices)

	backend := appraisal.NewAPI(client)
	hrSvc := hr.NewService(backend, lg)
	managerSvc := manager.NewService(backend, lg)
	bossSvc := boss.NewService(backend, lg)
	employeeSvc := employee.NewService(backend, lg)
	view.ForgetOnSessionEnd(bus, notices, hrSvc, managerSvc, bossSvc, employeeSvc, registry)

	components := map[string]rest.Pinger{"backend": client}
	if sessions.Pinger != nil {
		components["session_storage"] = sessions.Pinger
	}

	handlers := rest.Handlers{
		Pages:    rest.NewPageHandler(base),
		Auth:     auth.NewHandler(base, auth.NewService(client, lg)),
		HR:       hr.NewHandler(base, hrSvc),
		Manager:  manager.NewHandler(base, managerSvc),
		Boss:     boss.NewHandler(base, bossSvc),
		Employee: employee.NewHandler(base, employeeSvc),
		Health:   rest.NewHealthHandler(components, tracker),
	}
	opts := rest.Options{
		Cookies:       session.NewCookieCodec(config.Session.CookieName, config.Session.Secret, config.Session.CookieTTL, config.Server.SecureCookies),
		Registry:      registry,
		Menu:          menu,
		CSRFKey:       []byte(config.Security.CSRFKey),
		SecureCookies: config.Server.SecureCookies,
		GuardWait:     config.Session.GuardWait,
		Contract:      api.Contract,
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, handlers, opts, lg)

	return &Dependencies{
		Config:   config,
		Sessions: sessions,
		Registry: registry,
		Janitor:  janitor,
		Router:   router,
		Logger:   lg,
	}, nil
}

// newBackendClient validates requests against contract_path when set, else
// against the contract built into the binary.
func newBackendClient(ctx context.Context, cfg internal.BackendConfig, lg *slog.Logger) (*apiclient.Client, error) {
	var (
		contract *apiclient.Contract
		err      error
	)
	if cfg.ContractPath != "" {
		contract, err = apiclient.LoadContract(ctx, cfg.ContractPath, cfg.BaseURL)
	} else {
		contract, err = apiclient.ParseContract(ctx, api.Contract, cfg.BaseURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load backend contract: %w", err)
	}
	lg.Info("backend contract loaded", "operations", contract.Operations(), "base_url", cfg.BaseURL)

	return apiclient.NewClient(apiclient.Config{BaseURL: cfg.BaseURL, Timeout: cfg.Timeout}, lg, apiclient.WithContract(contract)), nil
}
