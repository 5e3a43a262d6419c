package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"cauldron/config"
	"cauldron/core/events"
	"cauldron/core/state"
	"cauldron/native/cauldron"
	"cauldron/observability"
	"cauldron/observability/logging"
	"cauldron/observability/metrics"
	"cauldron/observability/otel"
	"cauldron/services/audit"
	"cauldron/storage"
)

// Node assembles the ledger engine with its storage, logging, metrics,
// telemetry and optional audit indexer.
type Node struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       storage.Database
	state    *state.Manager
	engine   *cauldron.Engine
	recorder *events.Recorder
	audit    *audit.Indexer

	logCloser         io.Closer
	telemetryShutdown otel.Shutdown

	engineMu sync.Mutex
	closed   bool
}

// NewNode builds a node from cfg. The caller must Close the node.
func NewNode(ctx context.Context, cfg *config.Config) (*Node, error) {
	if cfg == nil {
		return nil, errors.New("node: config required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("node: %w", err)
	}

	logger, logCloser := logging.SetupWithOptions(cfg.Service, cfg.Environment, logging.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	n := &Node{cfg: cfg, logger: logger, logCloser: logCloser, recorder: &events.Recorder{}}

	shutdown, err := otel.Init(ctx, otel.Config{
		ServiceName: cfg.Service,
		Environment: cfg.Environment,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     otel.ParseHeaders(cfg.Telemetry.Headers),
		Traces:      cfg.Telemetry.Traces,
		Metrics:     cfg.Telemetry.Metrics,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		_ = n.Close()
		return nil, fmt.Errorf("node: telemetry: %w", err)
	}
	n.telemetryShutdown = shutdown

	db, err := openStore(cfg.Storage)
	if err != nil {
		_ = n.Close()
		return nil, fmt.Errorf("node: %w", err)
	}
	n.db = db
	n.state = state.NewManager(n.db)

	emitters := events.Fanout{n.recorder}
	if cfg.Audit.Enabled {
		idx, err := audit.Open(ctx, cfg.Audit.Driver, cfg.Audit.DSN)
		if err != nil {
			logger.Error("audit indexer unavailable",
				slog.String("driver", cfg.Audit.Driver),
				slog.String("dsn", logging.MaskDSN(cfg.Audit.DSN)),
				slog.Any("error", err))
			_ = n.Close()
			return nil, fmt.Errorf("node: %w", err)
		}
		idx.SetLogger(logger)
		n.audit = idx
		emitters = append(emitters, idx)
	}

	engine := cauldron.NewEngine(cfg.Cauldron)
	engine.SetState(n.state)
	engine.SetRoles(n.state)
	engine.SetLogger(logger)
	if cfg.Metrics.Enabled {
		engine.SetRecorder(metrics.Cauldron())
		emitters = append(emitters, observability.Events())
	}
	engine.SetEmitter(emitters)
	n.engine = engine

	logger.Info("cauldron node ready",
		slog.String("storage", cfg.Storage.Backend),
		slog.Bool("audit", n.audit != nil),
		slog.Bool("metrics", cfg.Metrics.Enabled),
		slog.Bool("paused", cfg.Cauldron.Paused))
	return n, nil
}

func openStore(cfg config.Storage) (storage.Database, error) {
	switch cfg.Backend {
	case config.StorageLevelDB:
		return storage.NewLevelDB(cfg.Path)
	case config.StorageBolt:
		return storage.NewBoltDB(cfg.Path, nil)
	default:
		return storage.NewMemDB(), nil
	}
}

// Engine returns the ledger engine. The engine is single-caller; concurrent
// callers go through WithEngine.
func (n *Node) Engine() *cauldron.Engine { return n.engine }

// WithEngine runs fn while holding the node's engine lock. fn must not call
// WithEngine again; event emitters that re-enter the ledger use the engine
// they are handed directly.
func (n *Node) WithEngine(fn func(*cauldron.Engine) error) error {
	n.engineMu.Lock()
	defer n.engineMu.Unlock()
	return fn(n.engine)
}

// Events returns the in-memory log of every event the engine emitted.
func (n *Node) Events() *events.Recorder { return n.recorder }

// Audit returns the audit indexer, or nil when auditing is disabled.
func (n *Node) Audit() *audit.Indexer { return n.audit }

// Logger returns the node logger.
func (n *Node) Logger() *slog.Logger { return n.logger }

// GrantRole adds addr to role in the ledger state. Role changes share the
// engine lock, so they must not be made from inside WithEngine.
func (n *Node) GrantRole(role string, addr common.Address) error {
	n.engineMu.Lock()
	defer n.engineMu.Unlock()
	if err := n.state.SetRole(role, addr.Bytes()); err != nil {
		return fmt.Errorf("node: grant %s: %w", role, err)
	}
	n.logger.Info("role granted", slog.String("role", role), slog.String("address", addr.Hex()))
	return nil
}

// RevokeRole removes addr from role.
func (n *Node) RevokeRole(role string, addr common.Address) error {
	n.engineMu.Lock()
	defer n.engineMu.Unlock()
	if err := n.state.RemoveRole(role, addr.Bytes()); err != nil {
		return fmt.Errorf("node: revoke %s: %w", role, err)
	}
	n.logger.Info("role revoked", slog.String("role", role), slog.String("address", addr.Hex()))
	return nil
}

// Close releases every resource held by the node. It is safe to call more
// than once.
func (n *Node) Close() error {
	if n == nil || n.closed {
		return nil
	}
	n.closed = true
	var errs []error
	if n.audit != nil {
		errs = append(errs, n.audit.Close())
	}
	if n.db != nil {
		n.db.Close()
	}
	if n.telemetryShutdown != nil {
		errs = append(errs, n.telemetryShutdown(context.Background()))
	}
	if n.logCloser != nil {
		errs = append(errs, n.logCloser.Close())
	}
	return errors.Join(errs...)
}
