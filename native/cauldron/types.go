package cauldron

import (
	"encoding/hex"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// AssetID identifies a registered token. Ids are opaque and compared by
// equality only.
type AssetID [6]byte

// SeriesID identifies a maturity-dated debt series.
type SeriesID [6]byte

// VaultID identifies a vault. Values are derived from a hash and carry no
// meaning; callers must not parse them.
type VaultID [12]byte

func (id AssetID) String() string  { return hex.EncodeToString(id[:]) }
func (id SeriesID) String() string { return hex.EncodeToString(id[:]) }
func (id VaultID) String() string  { return hex.EncodeToString(id[:]) }

// PriceOracle quotes the ray-scaled price of one unit of ilk in units of base.
// Implementations must be free of side effects on the ledger.
type PriceOracle interface {
	Address() common.Address
	Spot(base, ilk AssetID) (*uint256.Int, error)
}

// AccrualOracle reports the ray-scaled growth factor of a series' debt after
// maturity.
type AccrualOracle interface {
	Accrual(series SeriesID) (*uint256.Int, error)
}

// DebtToken is the handle of the token representing a series' debt. Its
// maturity is read once when the series is registered.
type DebtToken interface {
	Address() common.Address
	Maturity() uint64
}

// Asset binds an asset id to the token contract it represents.
type Asset struct {
	ID    AssetID
	Token common.Address
}

// Series is a maturity-dated debt instrument denominated in BaseID.
type Series struct {
	ID        SeriesID
	BaseID    AssetID
	Maturity  uint64
	DebtToken common.Address
}

// SpotOracle records which oracle prices a base/ilk pair and the minimum
// collateralisation ratio in hundredths of a percent (10000 = 100%).
type SpotOracle struct {
	Oracle common.Address
	Ratio  uint32
}

// DebtCeiling tracks the live debt across every vault sharing a base/ilk pair
// together with the governance maximum.
type DebtCeiling struct {
	Max *uint256.Int
	Sum *uint256.Int
}

// Vault binds an owner to a series and an approved collateral.
type Vault struct {
	Owner    common.Address
	SeriesID SeriesID
	IlkID    AssetID
}

// Balances are the collateral (Ink) and debt (Art) magnitudes of a vault.
type Balances struct {
	Ink *uint256.Int
	Art *uint256.Int
}

func cloneU256(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(v)
}

// Clone returns a deep copy of the ceiling with nil magnitudes replaced by zero.
func (c *DebtCeiling) Clone() *DebtCeiling {
	if c == nil {
		return &DebtCeiling{Max: new(uint256.Int), Sum: new(uint256.Int)}
	}
	return &DebtCeiling{Max: cloneU256(c.Max), Sum: cloneU256(c.Sum)}
}

// Clone returns a deep copy of the balances with nil magnitudes replaced by
// zero.
func (b *Balances) Clone() *Balances {
	if b == nil {
		return &Balances{Ink: new(uint256.Int), Art: new(uint256.Int)}
	}
	return &Balances{Ink: cloneU256(b.Ink), Art: cloneU256(b.Art)}
}

// Empty reports whether the vault holds neither collateral nor debt.
func (b *Balances) Empty() bool {
	return b == nil || ((b.Ink == nil || b.Ink.IsZero()) && (b.Art == nil || b.Art.IsZero()))
}
