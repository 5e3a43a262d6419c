package cauldron

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"cauldron/core/events"
)

// AddAsset binds id to a token. Asset ids are immutable once bound.
func (e *Engine) AddAsset(caller common.Address, id AssetID, token common.Address) error {
	return e.atomically("add_asset", func(tx *txn) error {
		if err := e.authorize(RoleAdmin, caller); err != nil {
			return err
		}
		exists, err := tx.st.KVHas(assetKey(id))
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: asset %s", ErrDuplicateID, id)
		}
		if err := tx.put(assetKey(id), &Asset{ID: id, Token: token}); err != nil {
			return err
		}
		tx.emit(events.CauldronAssetAdded{AssetID: id, Token: token})
		return nil
	})
}

// AddSeries registers a series denominated in baseID. The maturity is read
// from the debt token once, here, and frozen into the series record.
func (e *Engine) AddSeries(caller common.Address, id SeriesID, baseID AssetID, debt DebtToken) error {
	return e.atomically("add_series", func(tx *txn) error {
		if err := e.authorize(RoleAdmin, caller); err != nil {
			return err
		}
		if _, err := tx.asset(baseID); err != nil {
			return err
		}
		if debt == nil || debt.Address() == (common.Address{}) {
			return fmt.Errorf("%w: series %s needs a debt token", ErrInvalidHandle, id)
		}
		exists, err := tx.st.KVHas(seriesKey(id))
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: series %s", ErrDuplicateID, id)
		}
		series := &Series{
			ID:        id,
			BaseID:    baseID,
			Maturity:  debt.Maturity(),
			DebtToken: debt.Address(),
		}
		if err := tx.put(seriesKey(id), series); err != nil {
			return err
		}
		tx.emit(events.CauldronSeriesAdded{
			SeriesID:  id,
			BaseID:    baseID,
			DebtToken: series.DebtToken,
			Maturity:  series.Maturity,
		})
		return nil
	})
}

// AddSpotOracle sets the oracle and collateralisation ratio for a base/ilk
// pair, replacing any previous binding.
func (e *Engine) AddSpotOracle(caller common.Address, base, ilk AssetID, oracle PriceOracle, ratio uint32) error {
	return e.atomically("add_spot_oracle", func(tx *txn) error {
		if err := e.authorize(RoleAdmin, caller); err != nil {
			return err
		}
		if _, err := tx.asset(base); err != nil {
			return err
		}
		if _, err := tx.asset(ilk); err != nil {
			return err
		}
		if oracle == nil || oracle.Address() == (common.Address{}) {
			return fmt.Errorf("%w: spot oracle for %s/%s", ErrInvalidHandle, base, ilk)
		}
		addr := oracle.Address()
		if err := tx.put(spotOracleKey(base, ilk), &SpotOracle{Oracle: addr, Ratio: ratio}); err != nil {
			return err
		}
		tx.afterCommit(func() { e.oracles[addr] = oracle })
		tx.emit(events.CauldronSpotOracleAdded{BaseID: base, IlkID: ilk, Oracle: addr, Ratio: ratio})
		return nil
	})
}

// AddIlk approves ilk as collateral for a series. A spot oracle must already
// price the ilk against the series base.
func (e *Engine) AddIlk(caller common.Address, seriesID SeriesID, ilk AssetID) error {
	return e.atomically("add_ilk", func(tx *txn) error {
		if err := e.authorize(RoleAdmin, caller); err != nil {
			return err
		}
		series, err := tx.series(seriesID)
		if err != nil {
			return err
		}
		if _, err := tx.spotOracle(series.BaseID, ilk); err != nil {
			return err
		}
		if err := tx.put(ilkKey(seriesID, ilk), true); err != nil {
			return err
		}
		tx.emit(events.CauldronIlkAdded{SeriesID: seriesID, IlkID: ilk})
		return nil
	})
}

// SetMaxDebt sets the debt ceiling for a base/ilk pair. The live sum is left
// untouched, so lowering the maximum below it only blocks future borrowing.
func (e *Engine) SetMaxDebt(caller common.Address, base, ilk AssetID, maxDebt *uint256.Int) error {
	return e.atomically("set_max_debt", func(tx *txn) error {
		if err := e.authorize(RoleAdmin, caller); err != nil {
			return err
		}
		if _, err := tx.asset(base); err != nil {
			return err
		}
		if _, err := tx.asset(ilk); err != nil {
			return err
		}
		ceiling, err := tx.debt(base, ilk)
		if err != nil {
			return err
		}
		ceiling.Max = cloneU256(maxDebt)
		if err := tx.put(debtKey(base, ilk), ceiling); err != nil {
			return err
		}
		tx.emit(events.CauldronMaxDebtSet{BaseID: base, IlkID: ilk, Max: cloneU256(maxDebt)})
		return nil
	})
}

// BindOracle attaches a live oracle handle for an address already recorded by
// AddSpotOracle. Handles are not persisted, so a node reopening existing state
// binds them again before pricing vaults. Binding writes no state and emits
// nothing.
func (e *Engine) BindOracle(oracle PriceOracle) error {
	if oracle == nil || oracle.Address() == (common.Address{}) {
		return fmt.Errorf("%w: oracle handle", ErrInvalidHandle)
	}
	if e.entered {
		return ErrReentrantCall
	}
	e.oracles[oracle.Address()] = oracle
	return nil
}
