package cauldron

import (
	"math/big"

	"github.com/holiman/uint256"
)

var (
	ray = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(27)) // 1e27 precision
	// ratioScale lifts a ratio in hundredths of a percent (10000 = 100%) to ray.
	ratioScale = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(23))
)

// Ray returns a copy of the 1e27 fixed-point unit.
func Ray() *uint256.Int { return new(uint256.Int).Set(ray) }

// addDelta applies a signed delta to an unsigned magnitude. A result below
// zero is ErrUnderflow and a result above 2^256-1 is ErrArithmeticOverflow;
// the input is never modified.
func addDelta(x *uint256.Int, delta *big.Int) (*uint256.Int, error) {
	base := cloneU256(x)
	if delta == nil || delta.Sign() == 0 {
		return base, nil
	}
	if delta.Sign() > 0 {
		magnitude, overflow := uint256.FromBig(delta)
		if overflow {
			return nil, ErrArithmeticOverflow
		}
		return add(base, magnitude)
	}
	magnitude, overflow := uint256.FromBig(new(big.Int).Neg(delta))
	if overflow {
		return nil, ErrUnderflow
	}
	return sub(base, magnitude)
}

func add(x, y *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return sum, nil
}

func sub(x, y *uint256.Int) (*uint256.Int, error) {
	diff, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, ErrUnderflow
	}
	return diff, nil
}

// rayMul returns x*y/1e27 truncated towards zero. Overflow of the intermediate
// product is reported rather than wrapped.
func rayMul(x, y *uint256.Int) (*uint256.Int, error) {
	product, overflow := new(uint256.Int).MulOverflow(cloneU256(x), cloneU256(y))
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return product.Div(product, ray), nil
}

func ratioToRay(ratio uint32) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(uint64(ratio)), ratioScale)
}

func increases(delta *big.Int) bool { return delta != nil && delta.Sign() > 0 }

func decreases(delta *big.Int) bool { return delta != nil && delta.Sign() < 0 }
