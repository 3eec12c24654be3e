package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/GiancarloEsposito06/Live-comments-overlay/contract"
	"github.com/GiancarloEsposito06/Live-comments-overlay/domain"
	"github.com/GiancarloEsposito06/Live-comments-overlay/internal"
	"github.com/GiancarloEsposito06/Live-comments-overlay/moderation"
	"github.com/GiancarloEsposito06/Live-comments-overlay/observability"
	"github.com/GiancarloEsposito06/Live-comments-overlay/review"
	"github.com/GiancarloEsposito06/Live-comments-overlay/runtime"
	"github.com/GiancarloEsposito06/Live-comments-overlay/runtime/workers"
	"github.com/GiancarloEsposito06/Live-comments-overlay/sink"
	"github.com/GiancarloEsposito06/Live-comments-overlay/storage"
	"github.com/GiancarloEsposito06/Live-comments-overlay/transport"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exit codes to provide meaningful status to the operating system or
// service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Overlay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	censorRune, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Content filter from the embedded denylist
	denylist, err := moderation.LoadDefault()
	if err != nil {
		return exitConfig, fmt.Errorf("loading denylist: %w", err)
	}
	filter, err := moderation.NewFilter(denylist.Words, censorRune, logger)
	if err != nil {
		return exitConfig, fmt.Errorf("building content filter: %w", err)
	}

	monitor := observability.NewMonitor()
	sinks := []contract.EventSink{sink.NewConsoleSink(true)}

	// 3. Optional badger-backed stores (consent + audit trail)
	var consent contract.ConsentStore = storage.NewMemoryConsent()
	if config.BadgerFilepath != "" {
		options := badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.WARNING)
		db, err := badger.Open(options)
		if err != nil {
			return exitRuntime, fmt.Errorf("database opening failed: %w", err)
		}
		defer func() {
			logger.Info("Closing BadgerDB...")
			_ = db.Close()
		}()
		consent = storage.NewConsentRecord(db, logger)
		sinks = append(sinks, sink.NewAuditSink(storage.NewAuditTrail(db, logger)))
	}

	// 4. Optional review index over quarantined comments
	var index *review.Index
	if config.BlugeFilepath != "" {
		index, err = review.NewIndex(bluge.DefaultConfig(config.BlugeFilepath), logger)
		if err != nil {
			return exitRuntime, fmt.Errorf("opening review index: %w", err)
		}
		defer func() {
			logger.Info("Closing review index...")
			_ = index.Close()
		}()
		sinks = append(sinks, sink.NewReviewSink(index))
	}

	// 5. Transport picked from the endpoint scheme
	dialer, err := pickDialer(config, logger)
	if err != nil {
		return exitConfig, err
	}

	controller := runtime.NewController(runtime.Options{
		Endpoint:        config.Endpoint,
		Username:        config.Username,
		Capacity:        config.Capacity,
		DisplayDuration: config.ClampedDisplayDuration(),
		SendCooldown:    config.SendCooldown,
		Reconnect: runtime.ReconnectPolicy{
			Base:        config.ReconnectBase,
			MaxDelay:    config.ReconnectMaxDelay,
			MaxAttempts: config.ReconnectAttempts,
		},
		ModerationEnabled: config.ModerationEnabled,
		Privileged:        config.Privileged,
		ComplianceMode:    config.ComplianceMode,
	}, dialer, &filter, consent, monitor, logger, sinks...)
	defer controller.Destroy()

	if config.ComplianceMode {
		// The terminal viewer records consent explicitly on start; an
		// embedding UI would show its banner here instead.
		if err := consent.Set(ctx, domain.ConsentGranted); err != nil {
			return exitRuntime, fmt.Errorf("recording consent: %w", err)
		}
	}

	// 6. Metrics endpoint
	if config.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			logger.Info("Metrics endpoint listening", "addr", config.MetricsAddr)
			if err := http.ListenAndServe(config.MetricsAddr, mux); err != nil {
				logger.Warn("Metrics endpoint stopped", "error", err)
			}
		}()
	}

	// 7. Supervised workers: the stream itself plus telemetry
	supervisor := workers.NewSupervisor(logger)
	supervisor.Add(controller, workers.NewTelemetryWorker(logger, monitor, config.TelemetryInterval))
	go supervisor.Run(ctx)
	defer supervisor.Stop()

	// 8. Interactive command loop until the context ends
	logger.Info("Overlay running",
		"endpoint", config.Endpoint,
		"moderation", config.ModerationEnabled,
		"privileged", config.Privileged)
	commandLoop(ctx, controller, index, logger)

	logger.Info("Shutting down...")
	return exitOK, nil
}

// pickDialer maps an endpoint scheme to a transport backend. The
// decision happens once, here; call sites only ever see the Dialer.
func pickDialer(config internal.Config, logger *slog.Logger) (transport.Dialer, error) {
	endpoint := config.Endpoint
	switch {
	case strings.HasPrefix(endpoint, "ws://"), strings.HasPrefix(endpoint, "wss://"):
		return transport.NewWebsocketDialer("", logger), nil
	case strings.HasPrefix(endpoint, transport.SchemeTwitch):
		// Anonymous read-only login; overlaying a chat needs no account.
		return transport.NewTwitchDialer("", "", logger), nil
	case strings.HasPrefix(endpoint, "mem://"):
		return transport.NewMemoryServer().Dialer(), nil
	default:
		return nil, fmt.Errorf("unsupported endpoint scheme in %q", endpoint)
	}
}

// commandLoop reads moderation commands from stdin:
//
//	send <text>                 post a comment
//	highlight|quarantine|delete <id>
//	search <term>               query the review index
//	quit                        shut down
func commandLoop(ctx context.Context, controller *runtime.Controller, index *review.Index, logger *slog.Logger) {
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
			switch verb {
			case "":
			case "quit", "exit":
				return
			case "send":
				if err := controller.SendComment(rest); err != nil {
					logger.Warn("send refused", "error", err)
				}
			case "search":
				if index == nil {
					logger.Warn("review index is disabled (set BLUGE_FILEPATH)")
					continue
				}
				ids, err := index.Search(ctx, rest, 10)
				if err != nil {
					logger.Warn("search failed", "error", err)
					continue
				}
				fmt.Printf("matches: %v\n", ids)
			default:
				action, err := domain.ParseAction(verb)
				if err != nil {
					logger.Warn("unknown command", "input", line)
					continue
				}
				controller.Moderate(rest, action)
			}
		}
	}
}
