package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cauldron/core/events"
	telemetry "cauldron/observability/otel"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultQueryLimit caps query results when the caller passes no limit.
const DefaultQueryLimit = 100

var (
	// ErrUnknownDriver is returned by Open for drivers other than sqlite and
	// postgres.
	ErrUnknownDriver = errors.New("audit: unknown driver")
	errNilIndexer    = errors.New("audit: indexer not configured")
)

// Indexer persists ledger events into a SQL table for off-ledger queries. It
// implements events.Emitter; indexing failures are logged and counted but
// never reach the ledger.
type Indexer struct {
	db      *gorm.DB
	tracer  trace.Tracer
	indexed metric.Int64Counter
	failed  metric.Int64Counter
	logger  *slog.Logger
	clock   func() time.Time

	mu  sync.Mutex
	seq int64
}

// Open connects to the configured database and prepares the events table.
func Open(ctx context.Context, driver, dsn string) (*Indexer, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("audit: open %s: %w", driver, err)
	}
	return New(ctx, db)
}

// New wraps an existing gorm handle, migrating the events table and resuming
// the sequence after the highest stored row.
func New(ctx context.Context, db *gorm.DB) (*Indexer, error) {
	if db == nil {
		return nil, errNilIndexer
	}
	if err := db.WithContext(ctx).AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("audit: migrate: %w", err)
	}
	var last int64
	if err := db.WithContext(ctx).Model(&Record{}).Select("COALESCE(MAX(seq), 0)").Scan(&last).Error; err != nil {
		return nil, fmt.Errorf("audit: load sequence: %w", err)
	}

	meter := telemetry.Meter("audit")
	indexed, err := meter.Int64Counter("cauldron.audit.indexed",
		metric.WithDescription("Ledger events written to the audit table."))
	if err != nil {
		return nil, fmt.Errorf("audit: counter: %w", err)
	}
	failed, err := meter.Int64Counter("cauldron.audit.failed",
		metric.WithDescription("Ledger events the audit table could not store."))
	if err != nil {
		return nil, fmt.Errorf("audit: counter: %w", err)
	}
	return &Indexer{
		db:      db,
		tracer:  telemetry.Tracer("audit"),
		indexed: indexed,
		failed:  failed,
		logger:  slog.Default().With(slog.String("component", "audit")),
		clock:   time.Now,
		seq:     last,
	}, nil
}

// SetLogger replaces the logger used for indexing failures.
func (i *Indexer) SetLogger(l *slog.Logger) {
	if i == nil || l == nil {
		return
	}
	i.logger = l.With(slog.String("component", "audit"))
}

// SetClock overrides the timestamp source. Intended for tests.
func (i *Indexer) SetClock(clock func() time.Time) {
	if i == nil || clock == nil {
		return
	}
	i.clock = clock
}

// Emit implements events.Emitter.
func (i *Indexer) Emit(evt events.Event) {
	if i == nil || evt == nil {
		return
	}
	if _, err := i.Index(context.Background(), evt); err != nil {
		i.logger.Warn("audit index failed",
			slog.String("type", evt.EventType()),
			slog.Any("error", err))
	}
}

// Index stores evt and returns the stored record.
func (i *Indexer) Index(ctx context.Context, evt events.Event) (*Record, error) {
	if i == nil || i.db == nil {
		return nil, errNilIndexer
	}
	ctx, span := i.tracer.Start(ctx, "audit.index",
		trace.WithAttributes(attribute.String("event.type", evt.EventType())))
	defer span.End()

	record := &Record{ID: uuid.New(), Type: evt.EventType(), RecordedAt: i.clock().UTC()}
	if payload, ok := evt.(events.Payload); ok {
		if generic := payload.Event().Clone(); generic != nil {
			record.Subject = generic.Subject
			record.Attributes = generic.Attributes
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	record.Seq = i.seq + 1
	if err := i.db.WithContext(ctx).Create(record).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		i.failed.Add(ctx, 1, metric.WithAttributes(attribute.String("type", record.Type)))
		return nil, fmt.Errorf("audit: insert %s: %w", record.Type, err)
	}
	i.seq = record.Seq
	span.SetAttributes(attribute.Int64("event.seq", record.Seq))
	span.SetStatus(codes.Ok, "indexed")
	i.indexed.Add(ctx, 1, metric.WithAttributes(attribute.String("type", record.Type)))
	return record, nil
}

// ByType returns events of one type in emission order.
func (i *Indexer) ByType(ctx context.Context, eventType string, limit int) ([]Record, error) {
	return i.query(ctx, "audit.by_type", "type = ?", eventType, limit)
}

// BySubject returns every event about one subject (a vault, asset, series or
// pair) in emission order.
func (i *Indexer) BySubject(ctx context.Context, subject string, limit int) ([]Record, error) {
	return i.query(ctx, "audit.by_subject", "subject = ?", subject, limit)
}

func (i *Indexer) query(ctx context.Context, name, where, arg string, limit int) ([]Record, error) {
	if i == nil || i.db == nil {
		return nil, errNilIndexer
	}
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	ctx, span := i.tracer.Start(ctx, name, trace.WithAttributes(attribute.String("query.arg", arg)))
	defer span.End()

	var records []Record
	if err := i.db.WithContext(ctx).Where(where, arg).Order("seq ASC").Limit(limit).Find(&records).Error; err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("audit: %s: %w", name, err)
	}
	span.SetAttributes(attribute.Int("query.rows", len(records)))
	return records, nil
}

// Close releases the underlying connection pool.
func (i *Indexer) Close() error {
	if i == nil || i.db == nil {
		return nil
	}
	sqlDB, err := i.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
