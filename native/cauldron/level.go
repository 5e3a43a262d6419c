package cauldron

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Level returns the collateralisation surplus of a vault in base units:
// ink*spot - dues*ratio, both at ray precision. A negative level means the
// vault is undercollateralised. Overflow fails with ErrArithmeticOverflow
// instead of returning a value.
func (e *Engine) Level(id VaultID) (*big.Int, error) {
	v, err := e.rootView()
	if err != nil {
		return nil, err
	}
	vault, err := v.vault(id)
	if err != nil {
		return nil, err
	}
	bal, err := v.balances(id)
	if err != nil {
		return nil, err
	}
	return e.level(v, vault, bal)
}

func (e *Engine) level(v view, vault *Vault, bal *Balances) (*big.Int, error) {
	series, err := v.series(vault.SeriesID)
	if err != nil {
		return nil, err
	}
	spot, err := v.spotOracle(series.BaseID, vault.IlkID)
	if err != nil {
		return nil, err
	}
	oracle, ok := e.oracles[spot.Oracle]
	if !ok {
		return nil, fmt.Errorf("%w: no handle bound for %s", ErrOracleMissing, spot.Oracle.Hex())
	}
	price, err := oracle.Spot(series.BaseID, vault.IlkID)
	if err != nil {
		return nil, fmt.Errorf("cauldron: spot %s/%s: %w", series.BaseID, vault.IlkID, err)
	}
	if price == nil {
		return nil, fmt.Errorf("%w: oracle %s returned no price", ErrOracleMissing, spot.Oracle.Hex())
	}

	collateral, err := rayMul(bal.Ink, price)
	if err != nil {
		return nil, fmt.Errorf("%w: collateral value of %s", err, vault.IlkID)
	}
	dues, err := e.dues(series, bal.Art)
	if err != nil {
		return nil, err
	}
	required, err := rayMul(dues, ratioToRay(spot.Ratio))
	if err != nil {
		return nil, fmt.Errorf("%w: required collateral", err)
	}
	return new(big.Int).Sub(collateral.ToBig(), required.ToBig()), nil
}

// dues values debt. Before maturity it is the face amount; from maturity on
// the accrual oracle, when configured, scales it.
func (e *Engine) dues(series *Series, art *uint256.Int) (*uint256.Int, error) {
	if e.accrual == nil || e.now() < series.Maturity {
		return cloneU256(art), nil
	}
	factor, err := e.accrual.Accrual(series.ID)
	if err != nil {
		return nil, fmt.Errorf("cauldron: accrual %s: %w", series.ID, err)
	}
	dues, err := rayMul(art, factor)
	if err != nil {
		return nil, fmt.Errorf("%w: accrued debt of %s", err, series.ID)
	}
	return dues, nil
}
