package consensus

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// NanocoinsPerCoin is the smallest-unit scale factor (1e8 per coin,
// matching Bitcoin's satoshi scale; the spec calls the unit
// "nanocoin").
const NanocoinsPerCoin = 100_000_000

// Amount is an arbitrary-precision signed quantity of the smallest
// unit. All balance arithmetic is exact; big.Int never silently wraps.
type Amount struct {
	v *big.Int
}

func NewAmount(nanocoins int64) Amount {
	return Amount{v: big.NewInt(nanocoins)}
}

func AmountFromBig(v *big.Int) Amount {
	return Amount{v: new(big.Int).Set(v)}
}

func (a Amount) Big() *big.Int {
	if a.v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(a.v)
}

func (a Amount) Int64() int64 {
	if a.v == nil {
		return 0
	}
	return a.v.Int64()
}

func (a Amount) Add(b Amount) Amount {
	return Amount{v: new(big.Int).Add(a.Big(), b.Big())}
}

func (a Amount) Sub(b Amount) Amount {
	return Amount{v: new(big.Int).Sub(a.Big(), b.Big())}
}

func (a Amount) Cmp(b Amount) int {
	return a.Big().Cmp(b.Big())
}

func (a Amount) Sign() int {
	return a.Big().Sign()
}

func (a Amount) IsZero() bool {
	return a.Sign() == 0
}

// ToNanoCoins parses a decimal BTC string ("0.50") into nanocoins.
// Returns an arithmetic error on overflow or a malformed fraction,
// per spec.md §7.
func ToNanoCoins(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	parts := strings.SplitN(s, ".", 2)
	whole := parts[0]
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 8 {
		return Amount{}, verifyErr(ErrArithmeticOverflow, "toNanoCoins: more than 8 fractional digits in %q", s)
	}
	for len(frac) < 8 {
		frac += "0"
	}

	wholeI, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return Amount{}, verifyErr(ErrArithmeticOverflow, "toNanoCoins: malformed integer part in %q", s)
	}
	fracI, ok := new(big.Int).SetString(frac, 10)
	if !ok {
		return Amount{}, verifyErr(ErrArithmeticOverflow, "toNanoCoins: malformed fractional part in %q", s)
	}

	total := new(big.Int).Mul(wholeI, big.NewInt(NanocoinsPerCoin))
	total.Add(total, fracI)
	if neg {
		total.Neg(total)
	}
	return Amount{v: total}, nil
}

// FriendlyString renders an amount as a fixed two-decimal BTC string:
// friendly(100_000_000) == "1.00".
func (a Amount) FriendlyString() string {
	v := a.Big()
	neg := v.Sign() < 0
	if neg {
		v.Neg(v)
	}
	coins := new(big.Int).Quo(v, big.NewInt(NanocoinsPerCoin))
	rem := new(big.Int).Rem(v, big.NewInt(NanocoinsPerCoin))
	cents := new(big.Int).Quo(rem, big.NewInt(NanocoinsPerCoin/100))

	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s%s.%02s", sign, coins.String(), padLeft(cents.String(), 2))
}

func padLeft(s string, n int) string {
	for len(s) < n {
		s = "0" + s
	}
	return s
}

func (a Amount) String() string {
	return strconv.FormatInt(a.Int64(), 10)
}
