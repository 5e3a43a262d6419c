package events

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"cauldron/core/types"
)

const (
	// TypeCauldronAssetAdded is emitted when an asset id is bound to a token.
	TypeCauldronAssetAdded = "cauldron.asset.added"
	// TypeCauldronSeriesAdded is emitted when a maturity-dated series is
	// registered.
	TypeCauldronSeriesAdded = "cauldron.series.added"
	// TypeCauldronSpotOracleAdded is emitted when a spot oracle is set or
	// upgraded for a base/collateral pair.
	TypeCauldronSpotOracleAdded = "cauldron.spot_oracle.added"
	// TypeCauldronIlkAdded is emitted when a collateral is approved for a
	// series.
	TypeCauldronIlkAdded = "cauldron.ilk.added"
	// TypeCauldronMaxDebtSet is emitted when a debt ceiling maximum changes.
	TypeCauldronMaxDebtSet = "cauldron.max_debt.set"
	// TypeCauldronVaultBuilt is emitted when a vault is created.
	TypeCauldronVaultBuilt = "cauldron.vault.built"
	// TypeCauldronVaultTweaked is emitted when a vault is rebound to a new
	// series or collateral.
	TypeCauldronVaultTweaked = "cauldron.vault.tweaked"
	// TypeCauldronVaultDestroyed is emitted when an empty vault is removed.
	TypeCauldronVaultDestroyed = "cauldron.vault.destroyed"
	// TypeCauldronVaultGiven is emitted when vault ownership moves.
	TypeCauldronVaultGiven = "cauldron.vault.given"
	// TypeCauldronVaultFluxed is emitted when collateral moves between vaults.
	TypeCauldronVaultFluxed = "cauldron.vault.fluxed"
	// TypeCauldronVaultFrobbed is emitted when a vault's collateral or debt is
	// adjusted.
	TypeCauldronVaultFrobbed = "cauldron.vault.frobbed"
)

func u256String(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

func signedString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func pairSubject(base, ilk [6]byte) string {
	return hex.EncodeToString(base[:]) + "/" + hex.EncodeToString(ilk[:])
}

// CauldronAssetAdded captures a new asset registration.
type CauldronAssetAdded struct {
	AssetID [6]byte
	Token   common.Address
}

// EventType implements the Event interface.
func (CauldronAssetAdded) EventType() string { return TypeCauldronAssetAdded }

// Event converts the registration into the generic event payload.
func (e CauldronAssetAdded) Event() *types.Event {
	return &types.Event{
		Type:    TypeCauldronAssetAdded,
		Subject: hex.EncodeToString(e.AssetID[:]),
		Attributes: map[string]string{
			"token": e.Token.Hex(),
		},
	}
}

// CauldronSeriesAdded captures a new series registration. Maturity is the
// value read from the debt token when the series was added.
type CauldronSeriesAdded struct {
	SeriesID  [6]byte
	BaseID    [6]byte
	DebtToken common.Address
	Maturity  uint64
}

// EventType implements the Event interface.
func (CauldronSeriesAdded) EventType() string { return TypeCauldronSeriesAdded }

// Event converts the registration into the generic event payload.
func (e CauldronSeriesAdded) Event() *types.Event {
	return &types.Event{
		Type:    TypeCauldronSeriesAdded,
		Subject: hex.EncodeToString(e.SeriesID[:]),
		Attributes: map[string]string{
			"base_id":    hex.EncodeToString(e.BaseID[:]),
			"debt_token": e.DebtToken.Hex(),
			"maturity":   strconv.FormatUint(e.Maturity, 10),
		},
	}
}

// CauldronSpotOracleAdded captures a spot oracle binding for a pair.
type CauldronSpotOracleAdded struct {
	BaseID [6]byte
	IlkID  [6]byte
	Oracle common.Address
	Ratio  uint32
}

// EventType implements the Event interface.
func (CauldronSpotOracleAdded) EventType() string { return TypeCauldronSpotOracleAdded }

// Event converts the binding into the generic event payload.
func (e CauldronSpotOracleAdded) Event() *types.Event {
	return &types.Event{
		Type:    TypeCauldronSpotOracleAdded,
		Subject: pairSubject(e.BaseID, e.IlkID),
		Attributes: map[string]string{
			"oracle": e.Oracle.Hex(),
			"ratio":  strconv.FormatUint(uint64(e.Ratio), 10),
		},
	}
}

// CauldronIlkAdded captures a collateral approval for a series.
type CauldronIlkAdded struct {
	SeriesID [6]byte
	IlkID    [6]byte
}

// EventType implements the Event interface.
func (CauldronIlkAdded) EventType() string { return TypeCauldronIlkAdded }

// Event converts the approval into the generic event payload.
func (e CauldronIlkAdded) Event() *types.Event {
	return &types.Event{
		Type:    TypeCauldronIlkAdded,
		Subject: hex.EncodeToString(e.SeriesID[:]),
		Attributes: map[string]string{
			"ilk_id": hex.EncodeToString(e.IlkID[:]),
		},
	}
}

// CauldronMaxDebtSet captures a debt ceiling update.
type CauldronMaxDebtSet struct {
	BaseID [6]byte
	IlkID  [6]byte
	Max    *uint256.Int
}

// EventType implements the Event interface.
func (CauldronMaxDebtSet) EventType() string { return TypeCauldronMaxDebtSet }

// Event converts the update into the generic event payload.
func (e CauldronMaxDebtSet) Event() *types.Event {
	return &types.Event{
		Type:    TypeCauldronMaxDebtSet,
		Subject: pairSubject(e.BaseID, e.IlkID),
		Attributes: map[string]string{
			"max": u256String(e.Max),
		},
	}
}

// CauldronVaultBuilt captures the creation of a vault.
type CauldronVaultBuilt struct {
	VaultID  [12]byte
	Owner    common.Address
	SeriesID [6]byte
	IlkID    [6]byte
}

// EventType implements the Event interface.
func (CauldronVaultBuilt) EventType() string { return TypeCauldronVaultBuilt }

// Event converts the creation into the generic event payload.
func (e CauldronVaultBuilt) Event() *types.Event {
	return &types.Event{
		Type:    TypeCauldronVaultBuilt,
		Subject: hex.EncodeToString(e.VaultID[:]),
		Attributes: map[string]string{
			"owner":     e.Owner.Hex(),
			"series_id": hex.EncodeToString(e.SeriesID[:]),
			"ilk_id":    hex.EncodeToString(e.IlkID[:]),
		},
	}
}

// CauldronVaultTweaked captures a series/ilk rebinding.
type CauldronVaultTweaked struct {
	VaultID  [12]byte
	SeriesID [6]byte
	IlkID    [6]byte
}

// EventType implements the Event interface.
func (CauldronVaultTweaked) EventType() string { return TypeCauldronVaultTweaked }

// Event converts the rebinding into the generic event payload.
func (e CauldronVaultTweaked) Event() *types.Event {
	return &types.Event{
		Type:    TypeCauldronVaultTweaked,
		Subject: hex.EncodeToString(e.VaultID[:]),
		Attributes: map[string]string{
			"series_id": hex.EncodeToString(e.SeriesID[:]),
			"ilk_id":    hex.EncodeToString(e.IlkID[:]),
		},
	}
}

// CauldronVaultDestroyed captures the removal of an empty vault.
type CauldronVaultDestroyed struct {
	VaultID [12]byte
}

// EventType implements the Event interface.
func (CauldronVaultDestroyed) EventType() string { return TypeCauldronVaultDestroyed }

// Event converts the removal into the generic event payload.
func (e CauldronVaultDestroyed) Event() *types.Event {
	return &types.Event{
		Type:       TypeCauldronVaultDestroyed,
		Subject:    hex.EncodeToString(e.VaultID[:]),
		Attributes: map[string]string{},
	}
}

// CauldronVaultGiven captures an ownership transfer.
type CauldronVaultGiven struct {
	VaultID  [12]byte
	Receiver common.Address
}

// EventType implements the Event interface.
func (CauldronVaultGiven) EventType() string { return TypeCauldronVaultGiven }

// Event converts the transfer into the generic event payload.
func (e CauldronVaultGiven) Event() *types.Event {
	return &types.Event{
		Type:    TypeCauldronVaultGiven,
		Subject: hex.EncodeToString(e.VaultID[:]),
		Attributes: map[string]string{
			"receiver": e.Receiver.Hex(),
		},
	}
}

// CauldronVaultFluxed captures collateral moved from one vault to another.
type CauldronVaultFluxed struct {
	From [12]byte
	To   [12]byte
	Ink  *uint256.Int
}

// EventType implements the Event interface.
func (CauldronVaultFluxed) EventType() string { return TypeCauldronVaultFluxed }

// Event converts the movement into the generic event payload. The subject is
// the debited vault.
func (e CauldronVaultFluxed) Event() *types.Event {
	return &types.Event{
		Type:    TypeCauldronVaultFluxed,
		Subject: hex.EncodeToString(e.From[:]),
		Attributes: map[string]string{
			"to":  hex.EncodeToString(e.To[:]),
			"ink": u256String(e.Ink),
		},
	}
}

// CauldronVaultFrobbed captures a signed collateral/debt adjustment.
type CauldronVaultFrobbed struct {
	VaultID  [12]byte
	SeriesID [6]byte
	IlkID    [6]byte
	Ink      *big.Int
	Art      *big.Int
}

// EventType implements the Event interface.
func (CauldronVaultFrobbed) EventType() string { return TypeCauldronVaultFrobbed }

// Event converts the adjustment into the generic event payload.
func (e CauldronVaultFrobbed) Event() *types.Event {
	return &types.Event{
		Type:    TypeCauldronVaultFrobbed,
		Subject: hex.EncodeToString(e.VaultID[:]),
		Attributes: map[string]string{
			"series_id": hex.EncodeToString(e.SeriesID[:]),
			"ilk_id":    hex.EncodeToString(e.IlkID[:]),
			"ink":       signedString(e.Ink),
			"art":       signedString(e.Art),
		},
	}
}
