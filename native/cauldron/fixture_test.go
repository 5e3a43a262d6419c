package cauldron

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"cauldron/core/events"
	"cauldron/core/state"
	"cauldron/storage"
)

var (
	adminAddr    = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	operatorAddr = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	aliceAddr    = common.HexToAddress("0x00000000000000000000000000000000000000c3")
	bobAddr      = common.HexToAddress("0x00000000000000000000000000000000000000d4")

	baseID   = AssetID{0x01}
	ilkID    = AssetID{0x02}
	otherIlk = AssetID{0x03}
	seriesID = SeriesID{0x00, 0x01}
	series2  = SeriesID{0x00, 0x02}
)

const fixtureNow = int64(1_700_000_000)

type stubOracle struct {
	addr    common.Address
	price   *uint256.Int
	err     error
	onSpot  func()
	queries int
}

func (o *stubOracle) Address() common.Address { return o.addr }

func (o *stubOracle) Spot(AssetID, AssetID) (*uint256.Int, error) {
	o.queries++
	if o.onSpot != nil {
		o.onSpot()
	}
	if o.err != nil {
		return nil, o.err
	}
	return o.price, nil
}

type stubDebtToken struct {
	addr     common.Address
	maturity uint64
}

func (d stubDebtToken) Address() common.Address { return d.addr }
func (d stubDebtToken) Maturity() uint64        { return d.maturity }

type stubAccrual struct {
	factor *uint256.Int
}

func (a stubAccrual) Accrual(SeriesID) (*uint256.Int, error) { return a.factor, nil }

// rayPrice scales a price expressed in hundredths to ray.
func rayPrice(hundredths uint64) *uint256.Int {
	p := new(uint256.Int).Mul(uint256.NewInt(hundredths), Ray())
	return p.Div(p, uint256.NewInt(100))
}

type fixture struct {
	t        *testing.T
	engine   *Engine
	state    *state.Manager
	recorder *events.Recorder
	oracle   *stubOracle
	token    stubDebtToken
}

func newBareFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	st := state.NewManager(storage.NewMemDB())
	if err := st.SetRole(RoleAdmin, adminAddr.Bytes()); err != nil {
		t.Fatalf("grant admin: %v", err)
	}
	if err := st.SetRole(RoleOperator, operatorAddr.Bytes()); err != nil {
		t.Fatalf("grant operator: %v", err)
	}
	recorder := &events.Recorder{}
	engine := NewEngine(cfg)
	engine.SetState(st)
	engine.SetRoles(st)
	engine.SetEmitter(recorder)
	engine.SetNowFunc(func() int64 { return fixtureNow })
	return &fixture{
		t:        t,
		engine:   engine,
		state:    st,
		recorder: recorder,
		oracle:   &stubOracle{addr: common.HexToAddress("0x0000000000000000000000000000000000000f01"), price: Ray()},
		token:    stubDebtToken{addr: common.HexToAddress("0x0000000000000000000000000000000000000e01"), maturity: uint64(fixtureNow) + 86400},
	}
}

// newFixture registers base and ilk assets, a series maturing in a day, a
// 100% spot oracle at price 1.0, approves the ilk and sets a ceiling of 1000.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := newBareFixture(t, Config{})
	e := f.engine
	f.must(e.AddAsset(adminAddr, baseID, common.HexToAddress("0x0000000000000000000000000000000000000101")))
	f.must(e.AddAsset(adminAddr, ilkID, common.HexToAddress("0x0000000000000000000000000000000000000102")))
	f.must(e.AddSeries(adminAddr, seriesID, baseID, f.token))
	f.must(e.AddSpotOracle(adminAddr, baseID, ilkID, f.oracle, 10000))
	f.must(e.AddIlk(adminAddr, seriesID, ilkID))
	f.must(e.SetMaxDebt(adminAddr, baseID, ilkID, uint256.NewInt(1000)))
	return f
}

func (f *fixture) must(err error) {
	f.t.Helper()
	if err != nil {
		f.t.Fatalf("unexpected error: %v", err)
	}
}

func (f *fixture) build(owner common.Address) VaultID {
	f.t.Helper()
	id, err := f.engine.Build(owner, seriesID, ilkID)
	if err != nil {
		f.t.Fatalf("build: %v", err)
	}
	return id
}

func (f *fixture) frob(id VaultID, ink, art int64) *Balances {
	f.t.Helper()
	bal, err := f.engine.Frob(operatorAddr, id, big.NewInt(ink), big.NewInt(art))
	if err != nil {
		f.t.Fatalf("frob(%d, %d): %v", ink, art, err)
	}
	return bal
}

func (f *fixture) balances(id VaultID) *Balances {
	f.t.Helper()
	bal, err := f.engine.Balances(id)
	if err != nil {
		f.t.Fatalf("balances: %v", err)
	}
	return bal
}

func (f *fixture) expectBalances(id VaultID, ink, art uint64) {
	f.t.Helper()
	bal := f.balances(id)
	if bal.Ink.Uint64() != ink || bal.Art.Uint64() != art {
		f.t.Fatalf("expected ink=%d art=%d, got ink=%s art=%s", ink, art, bal.Ink.Dec(), bal.Art.Dec())
	}
}

func (f *fixture) ceiling() *DebtCeiling {
	f.t.Helper()
	c, err := f.engine.DebtCeiling(baseID, ilkID)
	if err != nil {
		f.t.Fatalf("debt ceiling: %v", err)
	}
	return c
}

func expectErr(t *testing.T, err error, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}
