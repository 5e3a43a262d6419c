package cauldron

import (
	"errors"

	nativecommon "cauldron/native/common"
)

var (
	ErrDuplicateID         = errors.New("cauldron: id already registered")
	ErrUnknownAsset        = errors.New("cauldron: asset not found")
	ErrUnknownSeries       = errors.New("cauldron: series not found")
	ErrOracleMissing       = errors.New("cauldron: spot oracle not found")
	ErrIlkNotApproved      = errors.New("cauldron: ilk not approved for series")
	ErrInvalidHandle       = errors.New("cauldron: invalid handle")
	ErrNotOwner            = errors.New("cauldron: caller is not the vault owner")
	ErrNotEmpty            = errors.New("cauldron: vault not empty")
	ErrVaultNotFound       = errors.New("cauldron: vault not found")
	ErrIlkMismatch         = errors.New("cauldron: vaults use different ilks")
	ErrDebtPresent         = errors.New("cauldron: vault carries debt")
	ErrCollateralPresent   = errors.New("cauldron: vault carries collateral")
	ErrUnderflow           = errors.New("cauldron: balance underflow")
	ErrDebtCeilingExceeded = errors.New("cauldron: debt ceiling exceeded")
	ErrUndercollateralized = errors.New("cauldron: vault undercollateralized")
	ErrArithmeticOverflow  = errors.New("cauldron: arithmetic overflow")
	ErrReentrantCall       = errors.New("cauldron: reentrant mutation rejected")
	ErrVaultIDExhausted    = errors.New("cauldron: could not derive a free vault id")

	// ErrUnauthorized and ErrModulePaused are shared with the other native
	// modules so callers can match them without importing this package.
	ErrUnauthorized = nativecommon.ErrUnauthorized
	ErrModulePaused = nativecommon.ErrModulePaused

	errNilState = errors.New("cauldron engine: state not configured")
)
