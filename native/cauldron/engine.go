package cauldron

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"cauldron/core/events"
	"cauldron/core/state"
	nativecommon "cauldron/native/common"
)

const moduleName = "cauldron"

const (
	// RoleAdmin gates the registry mutators.
	RoleAdmin = "ROLE_CAULDRON_ADMIN"
	// RoleOperator gates Frob, the raw position adjustment used by the
	// borrowing, liquidation and rollover modules.
	RoleOperator = "ROLE_CAULDRON_OPERATOR"
)

// OperationRecorder observes the outcome of every mutating operation.
type OperationRecorder interface {
	RecordOperation(operation string, err error, elapsed time.Duration)
}

// Engine owns the ledger: registries, vaults, balances and debt ceilings all
// live in the configured state manager.
//
// Every mutation runs against a staged view of state that is committed only
// when the whole operation succeeds. While that view is open the engine
// refuses nested mutations (ErrReentrantCall), so an oracle or debt token
// calling back during an operation cannot observe or corrupt half-applied
// state. Events are emitted after the commit, and emitters may call back into
// the engine freely.
//
// The engine is driven by one caller at a time; it does no locking of its own.
type Engine struct {
	state    *state.Manager
	roles    nativecommon.RoleChecker
	pauses   nativecommon.PauseView
	emitter  events.Emitter
	recorder OperationRecorder
	logger   *slog.Logger
	oracles  map[common.Address]PriceOracle
	accrual  AccrualOracle
	nowFn    func() int64

	maxBuildAttempts uint32
	entered          bool
}

// NewEngine constructs an engine from cfg. State, roles and oracles are wired
// with the setters.
func NewEngine(cfg Config) *Engine {
	cfg.EnsureDefaults()
	e := &Engine{
		emitter:          events.NoopEmitter{},
		logger:           slog.Default(),
		oracles:          make(map[common.Address]PriceOracle),
		nowFn:            func() int64 { return time.Now().Unix() },
		maxBuildAttempts: cfg.MaxBuildAttempts,
	}
	if cfg.Paused {
		e.pauses = nativecommon.StaticPauses{moduleName: true}
	}
	return e
}

// SetState wires the engine to the keyed store.
func (e *Engine) SetState(st *state.Manager) { e.state = st }

// SetRoles configures the capability checker consulted by privileged
// operations. Without one every privileged call is rejected.
func (e *Engine) SetRoles(roles nativecommon.RoleChecker) { e.roles = roles }

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetRecorder installs an observer for operation outcomes, typically the
// prometheus metrics.
func (e *Engine) SetRecorder(recorder OperationRecorder) { e.recorder = recorder }

// SetLogger replaces the engine logger. Passing nil restores slog.Default.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	e.logger = logger.With(slog.String("component", moduleName))
}

// SetAccrualOracle installs the factor applied to debt at or after maturity.
// With no accrual oracle matured debt is valued at its face amount.
func (e *Engine) SetAccrualOracle(oracle AccrualOracle) { e.accrual = oracle }

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) now() uint64 {
	ts := e.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (e *Engine) authorize(role string, caller common.Address) error {
	if err := nativecommon.RequireRole(e.roles, role, caller.Bytes()); err != nil {
		return fmt.Errorf("%w: %s for %s", err, role, caller.Hex())
	}
	return nil
}

// txn is the staged view handed to a mutation. Events and commit hooks are
// held back until the staged writes reach the root state.
type txn struct {
	view
	staged   *state.Manager
	events   []events.Event
	onCommit []func()
}

func (tx *txn) emit(evt events.Event) { tx.events = append(tx.events, evt) }

func (tx *txn) afterCommit(fn func()) { tx.onCommit = append(tx.onCommit, fn) }

// atomically runs fn against a staged copy of state. Either every write made
// by fn is committed or none is.
func (e *Engine) atomically(operation string, fn func(tx *txn) error) (err error) {
	started := time.Now()
	defer func() { e.observe(operation, err, time.Since(started)) }()

	if e.state == nil {
		return errNilState
	}
	if e.entered {
		return ErrReentrantCall
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}

	staged := e.state.Stage()
	tx := &txn{view: view{st: staged}, staged: staged}
	if err := e.run(tx, fn); err != nil {
		staged.Discard()
		return err
	}
	for _, hook := range tx.onCommit {
		hook()
	}
	for _, evt := range tx.events {
		e.emitter.Emit(evt)
	}
	return nil
}

func (e *Engine) run(tx *txn, fn func(tx *txn) error) error {
	e.entered = true
	defer func() { e.entered = false }()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.staged.Commit(); err != nil {
		return fmt.Errorf("cauldron: commit: %w", err)
	}
	return nil
}

func (e *Engine) observe(operation string, err error, elapsed time.Duration) {
	if e.recorder != nil {
		e.recorder.RecordOperation(operation, err, elapsed)
	}
	if e.logger == nil {
		return
	}
	if err != nil {
		e.logger.Debug("cauldron operation rejected",
			slog.String("operation", operation),
			slog.Any("error", err))
		return
	}
	e.logger.Debug("cauldron operation committed", slog.String("operation", operation))
}

func (e *Engine) rootView() (view, error) {
	if e == nil || e.state == nil {
		return view{}, errNilState
	}
	return view{st: e.state}, nil
}

// view reads typed records from a state manager, which may be the root or a
// staged child.
type view struct {
	st *state.Manager
}

func (v view) asset(id AssetID) (*Asset, error) {
	asset := new(Asset)
	ok, err := v.st.KVGet(assetKey(id), asset)
	if err != nil {
		return nil, fmt.Errorf("cauldron: load asset %s: %w", id, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, id)
	}
	return asset, nil
}

func (v view) series(id SeriesID) (*Series, error) {
	series := new(Series)
	ok, err := v.st.KVGet(seriesKey(id), series)
	if err != nil {
		return nil, fmt.Errorf("cauldron: load series %s: %w", id, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSeries, id)
	}
	return series, nil
}

func (v view) spotOracle(base, ilk AssetID) (*SpotOracle, error) {
	spot := new(SpotOracle)
	ok, err := v.st.KVGet(spotOracleKey(base, ilk), spot)
	if err != nil {
		return nil, fmt.Errorf("cauldron: load spot oracle %s/%s: %w", base, ilk, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrOracleMissing, base, ilk)
	}
	return spot, nil
}

func (v view) ilkApproved(series SeriesID, ilk AssetID) (bool, error) {
	var approved bool
	ok, err := v.st.KVGet(ilkKey(series, ilk), &approved)
	if err != nil {
		return false, fmt.Errorf("cauldron: load ilk %s/%s: %w", series, ilk, err)
	}
	return ok && approved, nil
}

// debt returns the ceiling for a pair; an unset ceiling reads as zero.
func (v view) debt(base, ilk AssetID) (*DebtCeiling, error) {
	ceiling := new(DebtCeiling)
	ok, err := v.st.KVGet(debtKey(base, ilk), ceiling)
	if err != nil {
		return nil, fmt.Errorf("cauldron: load debt %s/%s: %w", base, ilk, err)
	}
	if !ok {
		return (*DebtCeiling)(nil).Clone(), nil
	}
	return ceiling.Clone(), nil
}

// vault loads a vault record. A vault without an owner does not exist.
func (v view) vault(id VaultID) (*Vault, error) {
	vault := new(Vault)
	ok, err := v.st.KVGet(vaultKey(id), vault)
	if err != nil {
		return nil, fmt.Errorf("cauldron: load vault %s: %w", id, err)
	}
	if !ok || vault.Owner == (common.Address{}) {
		return nil, fmt.Errorf("%w: %s", ErrVaultNotFound, id)
	}
	return vault, nil
}

// ownedVault loads a vault and checks that caller owns it. A missing vault
// reports both ErrNotOwner and ErrVaultNotFound.
func (v view) ownedVault(id VaultID, caller common.Address) (*Vault, error) {
	vault, err := v.vault(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotOwner, err)
	}
	if vault.Owner != caller {
		return nil, fmt.Errorf("%w: %s", ErrNotOwner, id)
	}
	return vault, nil
}

// balances returns the vault balances; absent balances read as zero.
func (v view) balances(id VaultID) (*Balances, error) {
	bal := new(Balances)
	ok, err := v.st.KVGet(balancesKey(id), bal)
	if err != nil {
		return nil, fmt.Errorf("cauldron: load balances %s: %w", id, err)
	}
	if !ok {
		return (*Balances)(nil).Clone(), nil
	}
	return bal.Clone(), nil
}

func (tx *txn) put(key []byte, value interface{}) error {
	if err := tx.staged.KVPut(key, value); err != nil {
		return fmt.Errorf("cauldron: store %x: %w", key, err)
	}
	return nil
}

func (tx *txn) delete(key []byte) error {
	if err := tx.staged.KVDelete(key); err != nil {
		return fmt.Errorf("cauldron: delete %x: %w", key, err)
	}
	return nil
}

// Asset returns the registered asset.
func (e *Engine) Asset(id AssetID) (*Asset, error) {
	v, err := e.rootView()
	if err != nil {
		return nil, err
	}
	return v.asset(id)
}

// Series returns the registered series.
func (e *Engine) Series(id SeriesID) (*Series, error) {
	v, err := e.rootView()
	if err != nil {
		return nil, err
	}
	return v.series(id)
}

// SpotOracle returns the oracle binding for a base/ilk pair.
func (e *Engine) SpotOracle(base, ilk AssetID) (*SpotOracle, error) {
	v, err := e.rootView()
	if err != nil {
		return nil, err
	}
	return v.spotOracle(base, ilk)
}

// IlkApproved reports whether ilk may be used as collateral for series.
func (e *Engine) IlkApproved(series SeriesID, ilk AssetID) (bool, error) {
	v, err := e.rootView()
	if err != nil {
		return false, err
	}
	return v.ilkApproved(series, ilk)
}

// DebtCeiling returns the maximum and live sum of debt for a base/ilk pair.
func (e *Engine) DebtCeiling(base, ilk AssetID) (*DebtCeiling, error) {
	v, err := e.rootView()
	if err != nil {
		return nil, err
	}
	return v.debt(base, ilk)
}

// Vault returns the vault record.
func (e *Engine) Vault(id VaultID) (*Vault, error) {
	v, err := e.rootView()
	if err != nil {
		return nil, err
	}
	return v.vault(id)
}

// Balances returns the collateral and debt of an existing vault.
func (e *Engine) Balances(id VaultID) (*Balances, error) {
	v, err := e.rootView()
	if err != nil {
		return nil, err
	}
	if _, err := v.vault(id); err != nil {
		return nil, err
	}
	return v.balances(id)
}
