// Package main provides the CLI entry point for the customer console.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/CSCI-GA-2820-SP23-003/customers/internal/application/console"
	"github.com/CSCI-GA-2820-SP23-003/customers/internal/infrastructure/backend"
	"github.com/CSCI-GA-2820-SP23-003/customers/internal/infrastructure/client"
	"github.com/CSCI-GA-2820-SP23-003/customers/internal/infrastructure/config"
	"github.com/CSCI-GA-2820-SP23-003/customers/internal/infrastructure/logger"
	"github.com/CSCI-GA-2820-SP23-003/customers/internal/infrastructure/metrics"
	"github.com/CSCI-GA-2820-SP23-003/customers/internal/infrastructure/telemetry"
	"github.com/CSCI-GA-2820-SP23-003/customers/internal/interfaces/terminal"
)

// Version information (populated at build time)
var (
	version   = "dev"
	buildTime = "unknown"
)

// CLI flags
var (
	configPath  string
	actionName  string
	formPath    string
	savePath    string
	fake        bool
	metricsAddr string
	showVersion bool
)

func init() {
	flag.StringVar(&configPath, "config", "", "Path to the configuration file (TOML, YAML or JSON)")
	flag.StringVar(&configPath, "c", "", "Path to the configuration file (shorthand)")

	flag.StringVar(&actionName, "action", "", "Run a single action and exit: create, update, retrieve, delete, activate, deactivate, search, clear")
	flag.StringVar(&actionName, "a", "", "Run a single action and exit (shorthand)")
	flag.StringVar(&formPath, "form", "", "Load the form from a YAML snapshot before running")
	flag.StringVar(&savePath, "save", "", "Write the form to a YAML snapshot after the action")
	flag.BoolVar(&fake, "fake", false, "Fill the form with generated sample data")

	flag.StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g., :9091)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = printUsage
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Customer Console - admin console for the customer service

USAGE:
    console [options]                       (interactive session)
    console -action <name> [options]        (run one action and exit)

OPTIONS:
    -config, -c <path>    Configuration file (default: console.{toml,yaml,json}
                          in ., ./config or $HOME/.customer-console)
    -action, -a <name>    create, update, retrieve, delete, activate,
                          deactivate, search or clear
    -form <path>          Load the form from a YAML snapshot first
    -save <path>          Save the form to a YAML snapshot afterwards
    -fake                 Fill the form with generated sample data
    -metrics-addr <addr>  Serve Prometheus metrics (e.g., :9091)
    -version              Show version information
    -help, -h             Show this help message

ENVIRONMENT:
    Every configuration key can be overridden with a CONSOLE_ variable,
    e.g. CONSOLE_BACKEND_BASE_URL=http://localhost:8080

EXAMPLES:
    # Create a customer from generated data
    console -action create -fake

    # Look up customer 42 and keep the result
    echo "id: \"42\"" > c.yaml && console -action retrieve -form c.yaml -save c.yaml
`)
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Printf("customer-console %s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var action console.Action
	if actionName != "" {
		a, err := console.ParseAction(actionName)
		if err != nil {
			return err
		}
		action = a
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = metricsAddr
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting customer console",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("backend", cfg.Backend.BaseURL))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SamplingRatio:  cfg.Telemetry.SamplingRatio,
		ServiceName:    cfg.App.Name,
		ServiceVersion: version,
	}, log.Named("telemetry"))
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Warn("Tracer provider shutdown failed", zap.Error(err))
		}
	}()

	exporter := metrics.NewExporter(metrics.ExporterConfig{
		Addr:      cfg.Metrics.Addr,
		Path:      cfg.Metrics.Path,
		Namespace: cfg.Metrics.Namespace,
	})
	if cfg.Metrics.Enabled {
		if err := exporter.Start(); err != nil {
			return fmt.Errorf("failed to start metrics exporter: %w", err)
		}
		log.Info("Metrics endpoint listening", zap.String("addr", exporter.Address()), zap.String("path", cfg.Metrics.Path))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := exporter.Stop(shutdownCtx); err != nil {
				log.Warn("Metrics exporter shutdown failed", zap.Error(err))
			}
		}()
	}

	c, err := client.NewClient(cfg.Backend, nil,
		client.WithObserver(exporter),
		client.WithLogger(log.Named("client")))
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}
	log.Debug("Backend client ready", zap.String("base_url", c.BaseURL()))

	form := terminal.NewFormState()
	presenter := terminal.NewPresenter(os.Stdout)

	orch, err := console.NewOrchestrator(console.OrchestratorConfig{
		Gateway:  backend.NewGateway(c),
		Form:     form,
		Notifier: presenter,
		Renderer: presenter,
		Search: &console.SearchOptions{
			IncludeAddressID: cfg.Search.IncludeAddressID,
			IncludeActive:    cfg.Search.IncludeActive,
		},
		Recorder: exporter,
		Tracer:   tp.Tracer("github.com/CSCI-GA-2820-SP23-003/customers/cmd/console"),
		Logger:   log,
		Enrich:   logger.Enrich,
	})
	if err != nil {
		return err
	}

	var driver terminal.PromptDriver
	if action == "" {
		driver = terminal.NewSurveyDriver(os.Stdout)
	}
	session, err := terminal.NewSession(terminal.SessionConfig{
		Driver:       driver,
		Form:         form,
		Presenter:    presenter,
		Runner:       orch,
		Logger:       log,
		SnapshotPath: formPath,
	})
	if err != nil {
		return err
	}

	if formPath != "" {
		fields, err := terminal.LoadSnapshot(formPath)
		if err != nil {
			return err
		}
		form.SetFields(fields)
	}
	if fake {
		session.FillFake()
	}

	if action == "" {
		return session.Run(ctx)
	}

	out := session.Dispatch(ctx, action)
	presenter.RenderForm(form.Fields())

	if savePath != "" {
		if err := terminal.SaveSnapshot(savePath, form.Fields()); err != nil {
			return err
		}
	}
	if !out.Success {
		return errors.New(out.Message)
	}
	return nil
}
