package cauldron

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"cauldron/core/events"
)

// deriveVaultID hashes the owner, the current time and a probe salt. The
// result is opaque.
func deriveVaultID(owner common.Address, now uint64, salt uint32) VaultID {
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], now)
	var s [4]byte
	binary.BigEndian.PutUint32(s[:], salt)
	digest := ethcrypto.Keccak256(owner.Bytes(), ts[:], s[:])
	var id VaultID
	copy(id[:], digest[:len(id)])
	return id
}

// Build creates an empty vault owned by caller for an approved series/ilk
// pair and returns its id.
func (e *Engine) Build(caller common.Address, seriesID SeriesID, ilkID AssetID) (VaultID, error) {
	var built VaultID
	err := e.atomically("build", func(tx *txn) error {
		if caller == (common.Address{}) {
			return fmt.Errorf("%w: vault owner must be set", ErrInvalidHandle)
		}
		approved, err := tx.ilkApproved(seriesID, ilkID)
		if err != nil {
			return err
		}
		if !approved {
			return fmt.Errorf("%w: %s/%s", ErrIlkNotApproved, seriesID, ilkID)
		}
		now := e.now()
		found := false
		for salt := uint32(0); salt < e.maxBuildAttempts; salt++ {
			candidate := deriveVaultID(caller, now, salt)
			taken, err := tx.st.KVHas(vaultKey(candidate))
			if err != nil {
				return err
			}
			if !taken {
				built = candidate
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w after %d attempts", ErrVaultIDExhausted, e.maxBuildAttempts)
		}
		vault := &Vault{Owner: caller, SeriesID: seriesID, IlkID: ilkID}
		if err := tx.put(vaultKey(built), vault); err != nil {
			return err
		}
		tx.emit(events.CauldronVaultBuilt{VaultID: built, Owner: caller, SeriesID: seriesID, IlkID: ilkID})
		return nil
	})
	if err != nil {
		return VaultID{}, err
	}
	return built, nil
}

// Destroy removes an empty vault owned by caller.
func (e *Engine) Destroy(caller common.Address, id VaultID) error {
	return e.atomically("destroy", func(tx *txn) error {
		if _, err := tx.ownedVault(id, caller); err != nil {
			return err
		}
		bal, err := tx.balances(id)
		if err != nil {
			return err
		}
		if !bal.Empty() {
			return fmt.Errorf("%w: %s holds ink %s art %s", ErrNotEmpty, id, bal.Ink.Dec(), bal.Art.Dec())
		}
		if err := tx.delete(balancesKey(id)); err != nil {
			return err
		}
		if err := tx.delete(vaultKey(id)); err != nil {
			return err
		}
		tx.emit(events.CauldronVaultDestroyed{VaultID: id})
		return nil
	})
}

// Tweak rebinds a vault owned by caller to another series and/or ilk. The
// series can only change while the vault has no debt and the ilk only while it
// has no collateral. Debt carried across an ilk change moves between the two
// pairs' ceiling sums and must fit under the new pair's max.
func (e *Engine) Tweak(caller common.Address, id VaultID, seriesID SeriesID, ilkID AssetID) error {
	return e.atomically("tweak", func(tx *txn) error {
		vault, err := tx.ownedVault(id, caller)
		if err != nil {
			return err
		}
		approved, err := tx.ilkApproved(seriesID, ilkID)
		if err != nil {
			return err
		}
		if !approved {
			return fmt.Errorf("%w: %s/%s", ErrIlkNotApproved, seriesID, ilkID)
		}
		bal, err := tx.balances(id)
		if err != nil {
			return err
		}
		if seriesID != vault.SeriesID && !bal.Art.IsZero() {
			return fmt.Errorf("%w: %s", ErrDebtPresent, id)
		}
		if ilkID != vault.IlkID && !bal.Ink.IsZero() {
			return fmt.Errorf("%w: %s", ErrCollateralPresent, id)
		}
		carried := ilkID != vault.IlkID && !bal.Art.IsZero()
		if carried {
			if err := e.moveDebt(tx, vault.SeriesID, vault.IlkID, ilkID, bal.Art); err != nil {
				return err
			}
		}
		if err := e.tweak(tx, id, vault, seriesID, ilkID); err != nil {
			return err
		}
		if carried {
			return e.requireSafe(tx.view, id, vault, bal)
		}
		return nil
	})
}

// moveDebt transfers art from the (base, from) ceiling sum to the (base, to)
// sum. The receiving pair must have room under its max.
func (e *Engine) moveDebt(tx *txn, seriesID SeriesID, from, to AssetID, art *uint256.Int) error {
	series, err := tx.series(seriesID)
	if err != nil {
		return err
	}
	src, err := tx.debt(series.BaseID, from)
	if err != nil {
		return err
	}
	if src.Sum, err = sub(src.Sum, art); err != nil {
		return fmt.Errorf("%w: debt of %s/%s", err, series.BaseID, from)
	}
	dst, err := tx.debt(series.BaseID, to)
	if err != nil {
		return err
	}
	sum, err := add(dst.Sum, art)
	if err != nil {
		return fmt.Errorf("%w: debt of %s/%s", err, series.BaseID, to)
	}
	if sum.Gt(dst.Max) {
		return fmt.Errorf("%w: %s/%s would reach %s of %s", ErrDebtCeilingExceeded,
			series.BaseID, to, sum.Dec(), dst.Max.Dec())
	}
	dst.Sum = sum
	if err := tx.put(debtKey(series.BaseID, from), src); err != nil {
		return err
	}
	return tx.put(debtKey(series.BaseID, to), dst)
}

// tweak rewrites the vault binding without any checks.
func (e *Engine) tweak(tx *txn, id VaultID, vault *Vault, seriesID SeriesID, ilkID AssetID) error {
	vault.SeriesID = seriesID
	vault.IlkID = ilkID
	if err := tx.put(vaultKey(id), vault); err != nil {
		return err
	}
	tx.emit(events.CauldronVaultTweaked{VaultID: id, SeriesID: seriesID, IlkID: ilkID})
	return nil
}

// Give transfers a vault owned by caller to receiver.
func (e *Engine) Give(caller common.Address, id VaultID, receiver common.Address) error {
	return e.atomically("give", func(tx *txn) error {
		vault, err := tx.ownedVault(id, caller)
		if err != nil {
			return err
		}
		return e.give(tx, id, vault, receiver)
	})
}

// give rewrites the vault owner without any checks.
func (e *Engine) give(tx *txn, id VaultID, vault *Vault, receiver common.Address) error {
	vault.Owner = receiver
	if err := tx.put(vaultKey(id), vault); err != nil {
		return err
	}
	tx.emit(events.CauldronVaultGiven{VaultID: id, Receiver: receiver})
	return nil
}
