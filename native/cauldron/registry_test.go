package cauldron

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"cauldron/core/events"
)

func TestAddAsset(t *testing.T) {
	f := newBareFixture(t, Config{})
	token := common.HexToAddress("0x0000000000000000000000000000000000000101")

	expectErr(t, f.engine.AddAsset(aliceAddr, baseID, token), ErrUnauthorized)
	if _, err := f.engine.Asset(baseID); err == nil {
		t.Fatalf("unauthorized registration must not persist")
	}

	f.must(f.engine.AddAsset(adminAddr, baseID, token))
	asset, err := f.engine.Asset(baseID)
	if err != nil {
		t.Fatalf("asset: %v", err)
	}
	if asset.Token != token || asset.ID != baseID {
		t.Fatalf("unexpected asset %+v", asset)
	}

	expectErr(t, f.engine.AddAsset(adminAddr, baseID, common.HexToAddress("0x01")), ErrDuplicateID)
	asset, _ = f.engine.Asset(baseID)
	if asset.Token != token {
		t.Fatalf("duplicate registration replaced token: %s", asset.Token.Hex())
	}

	added := f.recorder.OfType(events.TypeCauldronAssetAdded)
	if len(added) != 1 {
		t.Fatalf("expected one asset event, got %d", len(added))
	}
	evt := added[0].(events.CauldronAssetAdded)
	if evt.AssetID != baseID || evt.Token != token {
		t.Fatalf("unexpected event %+v", evt)
	}
}

func TestUnknownAssetLookup(t *testing.T) {
	f := newBareFixture(t, Config{})
	_, err := f.engine.Asset(AssetID{0x09})
	expectErr(t, err, ErrUnknownAsset)
}

func TestAddSeries(t *testing.T) {
	f := newBareFixture(t, Config{})
	f.must(f.engine.AddAsset(adminAddr, baseID, common.HexToAddress("0x0101")))

	expectErr(t, f.engine.AddSeries(aliceAddr, seriesID, baseID, f.token), ErrUnauthorized)
	expectErr(t, f.engine.AddSeries(adminAddr, seriesID, AssetID{0x09}, f.token), ErrUnknownAsset)
	expectErr(t, f.engine.AddSeries(adminAddr, seriesID, baseID, nil), ErrInvalidHandle)
	expectErr(t, f.engine.AddSeries(adminAddr, seriesID, baseID, stubDebtToken{}), ErrInvalidHandle)

	f.must(f.engine.AddSeries(adminAddr, seriesID, baseID, f.token))
	series, err := f.engine.Series(seriesID)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	if series.BaseID != baseID || series.Maturity != f.token.maturity || series.DebtToken != f.token.addr {
		t.Fatalf("unexpected series %+v", series)
	}

	// Maturity is frozen at registration.
	expectErr(t, f.engine.AddSeries(adminAddr, seriesID, baseID, stubDebtToken{addr: f.token.addr, maturity: 1}), ErrDuplicateID)
	series, _ = f.engine.Series(seriesID)
	if series.Maturity != f.token.maturity {
		t.Fatalf("maturity changed to %d", series.Maturity)
	}

	added := f.recorder.OfType(events.TypeCauldronSeriesAdded)
	if len(added) != 1 {
		t.Fatalf("expected one series event, got %d", len(added))
	}
	payload := added[0].(events.CauldronSeriesAdded).Event()
	if payload.Attributes["maturity"] != "1700086400" {
		t.Fatalf("unexpected maturity attribute %q", payload.Attributes["maturity"])
	}
}

func TestAddSpotOracle(t *testing.T) {
	f := newBareFixture(t, Config{})
	e := f.engine
	f.must(e.AddAsset(adminAddr, baseID, common.HexToAddress("0x0101")))

	expectErr(t, e.AddSpotOracle(aliceAddr, baseID, ilkID, f.oracle, 15000), ErrUnauthorized)
	expectErr(t, e.AddSpotOracle(adminAddr, baseID, ilkID, f.oracle, 15000), ErrUnknownAsset)
	expectErr(t, e.AddSpotOracle(adminAddr, AssetID{0x09}, baseID, f.oracle, 15000), ErrUnknownAsset)

	f.must(e.AddAsset(adminAddr, ilkID, common.HexToAddress("0x0102")))
	expectErr(t, e.AddSpotOracle(adminAddr, baseID, ilkID, nil, 15000), ErrInvalidHandle)
	expectErr(t, e.AddSpotOracle(adminAddr, baseID, ilkID, &stubOracle{}, 15000), ErrInvalidHandle)

	_, err := e.SpotOracle(baseID, ilkID)
	expectErr(t, err, ErrOracleMissing)

	f.must(e.AddSpotOracle(adminAddr, baseID, ilkID, f.oracle, 15000))
	spot, err := e.SpotOracle(baseID, ilkID)
	if err != nil {
		t.Fatalf("spot oracle: %v", err)
	}
	if spot.Oracle != f.oracle.addr || spot.Ratio != 15000 {
		t.Fatalf("unexpected binding %+v", spot)
	}

	// Re-adding upgrades the binding in place.
	upgraded := &stubOracle{addr: common.HexToAddress("0x0f02"), price: Ray()}
	f.must(e.AddSpotOracle(adminAddr, baseID, ilkID, upgraded, 12000))
	spot, _ = e.SpotOracle(baseID, ilkID)
	if spot.Oracle != upgraded.addr || spot.Ratio != 12000 {
		t.Fatalf("expected upgraded binding, got %+v", spot)
	}
	if got := len(f.recorder.OfType(events.TypeCauldronSpotOracleAdded)); got != 2 {
		t.Fatalf("expected two oracle events, got %d", got)
	}
}

func TestAddIlk(t *testing.T) {
	f := newBareFixture(t, Config{})
	e := f.engine
	f.must(e.AddAsset(adminAddr, baseID, common.HexToAddress("0x0101")))
	f.must(e.AddAsset(adminAddr, ilkID, common.HexToAddress("0x0102")))

	expectErr(t, e.AddIlk(adminAddr, seriesID, ilkID), ErrUnknownSeries)
	f.must(e.AddSeries(adminAddr, seriesID, baseID, f.token))
	expectErr(t, e.AddIlk(adminAddr, seriesID, ilkID), ErrOracleMissing)
	f.must(e.AddSpotOracle(adminAddr, baseID, ilkID, f.oracle, 10000))
	expectErr(t, e.AddIlk(aliceAddr, seriesID, ilkID), ErrUnauthorized)

	approved, err := e.IlkApproved(seriesID, ilkID)
	if err != nil || approved {
		t.Fatalf("ilk approved before AddIlk: %v %v", approved, err)
	}
	f.must(e.AddIlk(adminAddr, seriesID, ilkID))
	f.must(e.AddIlk(adminAddr, seriesID, ilkID))
	approved, err = e.IlkApproved(seriesID, ilkID)
	if err != nil || !approved {
		t.Fatalf("expected ilk approved: %v %v", approved, err)
	}
}

func TestSetMaxDebt(t *testing.T) {
	f := newFixture(t)
	e := f.engine

	expectErr(t, e.SetMaxDebt(aliceAddr, baseID, ilkID, uint256.NewInt(5)), ErrUnauthorized)
	expectErr(t, e.SetMaxDebt(adminAddr, baseID, otherIlk, uint256.NewInt(5)), ErrUnknownAsset)

	id := f.build(aliceAddr)
	f.frob(id, 100, 40)

	// Lowering the maximum below the live sum keeps the sum intact.
	f.must(e.SetMaxDebt(adminAddr, baseID, ilkID, uint256.NewInt(10)))
	c := f.ceiling()
	if c.Max.Uint64() != 10 || c.Sum.Uint64() != 40 {
		t.Fatalf("unexpected ceiling max=%s sum=%s", c.Max.Dec(), c.Sum.Dec())
	}
	// Repaying is still allowed while above the maximum.
	f.frob(id, 0, -5)
	if c := f.ceiling(); c.Sum.Uint64() != 35 {
		t.Fatalf("expected sum 35, got %s", c.Sum.Dec())
	}

	set := f.recorder.OfType(events.TypeCauldronMaxDebtSet)
	last := set[len(set)-1].(events.CauldronMaxDebtSet)
	if last.Max.Uint64() != 10 {
		t.Fatalf("unexpected max in event: %s", last.Max.Dec())
	}
}

func TestUnconfiguredRolesRejectEveryone(t *testing.T) {
	f := newBareFixture(t, Config{})
	f.engine.SetRoles(nil)
	expectErr(t, f.engine.AddAsset(adminAddr, baseID, common.HexToAddress("0x0101")), ErrUnauthorized)
}
