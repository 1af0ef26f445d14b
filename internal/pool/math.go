package pool

import "math/big"

const (
	// BpsDenominator is the basis-point scale: 10000 = 100%.
	BpsDenominator uint64 = 10_000

	// MaxFeeBps is the hard fee ceiling, half the denominator.
	MaxFeeBps uint64 = BpsDenominator / 2
)

var bpsDen = new(big.Int).SetUint64(BpsDenominator)

// amountOut prices a swap of amountIn against own-side reserve x and
// other-side reserve y under the constant-product rule. Every division
// truncates, so rounding always favors the pool.
func amountOut(x, y, amountIn *big.Int, feeBps uint64) (*big.Int, error) {
	// net = amountIn * (10000 - feeBps) / 10000
	net := new(big.Int).SetUint64(BpsDenominator - feeBps)
	net.Mul(net, amountIn)
	net.Div(net, bpsDen)

	// yNew = (x * y) / (x + net)
	k := new(big.Int).Mul(x, y)
	xNew := new(big.Int).Add(x, net)
	yNew := k.Div(k, xNew)

	// cannot happen for net >= 0, checked anyway
	if yNew.Cmp(y) > 0 {
		return nil, ErrInvariantViolation
	}
	return yNew.Sub(y, yNew), nil
}

// intSqrt returns floor(sqrt(v)) using exact integer arithmetic. Isolated so
// the minting path never touches floating point.
func intSqrt(v *big.Int) *big.Int {
	return new(big.Int).Sqrt(v)
}

// minBig returns the smaller of a and b.
func minBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}
