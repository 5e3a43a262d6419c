package cauldron

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"cauldron/core/events"
)

// Flux moves ink of collateral from a vault owned by caller to another vault
// using the same ilk. If the source carries debt it must remain collateralised.
func (e *Engine) Flux(caller common.Address, from, to VaultID, ink *uint256.Int) error {
	amount := cloneU256(ink)
	return e.atomically("flux", func(tx *txn) error {
		source, err := tx.ownedVault(from, caller)
		if err != nil {
			return err
		}
		dest, err := tx.vault(to)
		if err != nil {
			return err
		}
		if source.IlkID != dest.IlkID {
			return fmt.Errorf("%w: %s uses %s, %s uses %s", ErrIlkMismatch, from, source.IlkID, to, dest.IlkID)
		}

		fromBal, err := tx.balances(from)
		if err != nil {
			return err
		}
		remaining, err := sub(fromBal.Ink, amount)
		if err != nil {
			return fmt.Errorf("%w: %s holds ink %s, moving %s", err, from, fromBal.Ink.Dec(), amount.Dec())
		}
		if from != to {
			toBal, err := tx.balances(to)
			if err != nil {
				return err
			}
			if toBal.Ink, err = add(toBal.Ink, amount); err != nil {
				return err
			}
			fromBal.Ink = remaining
			if err := tx.put(balancesKey(from), fromBal); err != nil {
				return err
			}
			if err := tx.put(balancesKey(to), toBal); err != nil {
				return err
			}
		}

		if !fromBal.Art.IsZero() {
			if err := e.requireSafe(tx.view, from, source, fromBal); err != nil {
				return err
			}
		}
		tx.emit(events.CauldronVaultFluxed{From: from, To: to, Ink: cloneU256(amount)})
		return nil
	})
}

// Frob adjusts the collateral and debt of a vault by signed deltas; nil deltas
// are zero. Debt increases are bounded by the base/ilk debt ceiling and any
// change that adds debt or removes collateral must leave the vault
// collateralised. Only callers holding RoleOperator may frob.
func (e *Engine) Frob(caller common.Address, id VaultID, inkDelta, artDelta *big.Int) (*Balances, error) {
	var result *Balances
	err := e.atomically("frob", func(tx *txn) error {
		if err := e.authorize(RoleOperator, caller); err != nil {
			return err
		}
		vault, err := tx.vault(id)
		if err != nil {
			return err
		}
		bal, err := tx.balances(id)
		if err != nil {
			return err
		}
		if bal.Ink, err = addDelta(bal.Ink, inkDelta); err != nil {
			return fmt.Errorf("%w: ink of %s", err, id)
		}

		if artDelta != nil && artDelta.Sign() != 0 {
			series, err := tx.series(vault.SeriesID)
			if err != nil {
				return err
			}
			ceiling, err := tx.debt(series.BaseID, vault.IlkID)
			if err != nil {
				return err
			}
			sum, err := addDelta(ceiling.Sum, artDelta)
			if err != nil {
				return fmt.Errorf("%w: debt of %s/%s", err, series.BaseID, vault.IlkID)
			}
			if increases(artDelta) && sum.Gt(ceiling.Max) {
				return fmt.Errorf("%w: %s/%s would reach %s of %s", ErrDebtCeilingExceeded,
					series.BaseID, vault.IlkID, sum.Dec(), ceiling.Max.Dec())
			}
			if bal.Art, err = addDelta(bal.Art, artDelta); err != nil {
				return fmt.Errorf("%w: art of %s", err, id)
			}
			ceiling.Sum = sum
			if err := tx.put(debtKey(series.BaseID, vault.IlkID), ceiling); err != nil {
				return err
			}
		}
		if err := tx.put(balancesKey(id), bal); err != nil {
			return err
		}

		if !bal.Art.IsZero() && (decreases(inkDelta) || increases(artDelta)) {
			if err := e.requireSafe(tx.view, id, vault, bal); err != nil {
				return err
			}
		}
		tx.emit(events.CauldronVaultFrobbed{
			VaultID:  id,
			SeriesID: vault.SeriesID,
			IlkID:    vault.IlkID,
			Ink:      signedCopy(inkDelta),
			Art:      signedCopy(artDelta),
		})
		result = bal.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) requireSafe(v view, id VaultID, vault *Vault, bal *Balances) error {
	level, err := e.level(v, vault, bal)
	if err != nil {
		return err
	}
	if level.Sign() < 0 {
		return fmt.Errorf("%w: %s level %s", ErrUndercollateralized, id, level)
	}
	return nil
}

func signedCopy(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
