package mathexpr

import (
	"errors"
	"math"
	"math/big"
	"strconv"
)

// maxIntBits bounds integer results, a little under 5000 decimal digits
const maxIntBits = 1 << 14

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrDomain         = errors.New("math domain error")
	ErrRange          = errors.New("math range error")
	ErrIntTooLarge    = errors.New("integer result too large")
	ErrFloatOverflow  = errors.New("int too large to convert to float")
)

var bigOne = big.NewInt(1)

// Value is a number with integer/float distinction. Integers are exact
// (i != nil) and f holds their nearest float; true division and most math
// functions produce floats.
type Value struct {
	f float64
	i *big.Int
}

func Int(n int64) Value { return bigValue(big.NewInt(n)) }

func Float(f float64) Value { return Value{f: f} }

func bigValue(i *big.Int) Value {
	f, _ := new(big.Float).SetInt(i).Float64()
	return Value{f: f, i: i}
}

func checkedInt(i *big.Int) (Value, error) {
	if i.BitLen() > maxIntBits {
		return Value{}, ErrIntTooLarge
	}
	return bigValue(i), nil
}

// Float64 returns the numeric value. Integers beyond float range are ±Inf.
func (v Value) Float64() float64 { return v.f }

// IsInt reports whether the value is integral-typed
func (v Value) IsInt() bool { return v.i != nil }

func (v Value) float() (float64, error) {
	if v.i != nil && math.IsInf(v.f, 0) {
		return 0, ErrFloatOverflow
	}
	return v.f, nil
}

// String renders the value the way an interactive calculator would:
// "4" for integers, "8.0" for integral floats, fixed-point for magnitudes in
// [1e-4, 1e16) and exponent form outside it.
func (v Value) String() string {
	if v.i != nil {
		return v.i.String()
	}
	switch {
	case math.IsNaN(v.f):
		return "nan"
	case math.IsInf(v.f, 1):
		return "inf"
	case math.IsInf(v.f, -1):
		return "-inf"
	}
	abs := math.Abs(v.f)
	if v.f == math.Trunc(v.f) && abs < 1e16 {
		return strconv.FormatFloat(v.f, 'f', 1, 64)
	}
	if abs >= 1e16 || abs < 1e-4 {
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	}
	return strconv.FormatFloat(v.f, 'f', -1, 64)
}

// arith applies intOp when both operands are integers and floatOp otherwise
func arith(a, b Value, intOp func(x, y *big.Int) (*big.Int, error), floatOp func(x, y float64) (float64, error)) (Value, error) {
	if a.i != nil && b.i != nil {
		r, err := intOp(a.i, b.i)
		if err != nil {
			return Value{}, err
		}
		return checkedInt(r)
	}
	x, y, err := floats(a, b)
	if err != nil {
		return Value{}, err
	}
	r, err := floatOp(x, y)
	if err != nil {
		return Value{}, err
	}
	return Float(r), nil
}

func floats(a, b Value) (float64, float64, error) {
	x, err := a.float()
	if err != nil {
		return 0, 0, err
	}
	y, err := b.float()
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func add(a, b Value) (Value, error) {
	return arith(a, b,
		func(x, y *big.Int) (*big.Int, error) { return new(big.Int).Add(x, y), nil },
		func(x, y float64) (float64, error) { return x + y, nil })
}

func sub(a, b Value) (Value, error) {
	return arith(a, b,
		func(x, y *big.Int) (*big.Int, error) { return new(big.Int).Sub(x, y), nil },
		func(x, y float64) (float64, error) { return x - y, nil })
}

func mul(a, b Value) (Value, error) {
	return arith(a, b,
		func(x, y *big.Int) (*big.Int, error) { return new(big.Int).Mul(x, y), nil },
		func(x, y float64) (float64, error) { return x * y, nil })
}

func div(a, b Value) (Value, error) {
	if a.i != nil && b.i != nil {
		if b.i.Sign() == 0 {
			return Value{}, ErrDivisionByZero
		}
		f, _ := new(big.Rat).SetFrac(a.i, b.i).Float64()
		if math.IsInf(f, 0) {
			return Value{}, errors.New("integer division result too large for a float")
		}
		return Float(f), nil
	}
	return arith(a, b, nil, func(x, y float64) (float64, error) {
		if y == 0 {
			return 0, ErrDivisionByZero
		}
		return x / y, nil
	})
}

// floorDivMod returns the floored quotient and a remainder with the sign of y
func floorDivMod(x, y *big.Int) (*big.Int, *big.Int) {
	q, m := new(big.Int).QuoRem(x, y, new(big.Int))
	if m.Sign() != 0 && m.Sign() != y.Sign() {
		q.Sub(q, bigOne)
		m.Add(m, y)
	}
	return q, m
}

func floorDiv(a, b Value) (Value, error) {
	return arith(a, b,
		func(x, y *big.Int) (*big.Int, error) {
			if y.Sign() == 0 {
				return nil, ErrDivisionByZero
			}
			q, _ := floorDivMod(x, y)
			return q, nil
		},
		func(x, y float64) (float64, error) {
			if y == 0 {
				return 0, ErrDivisionByZero
			}
			return math.Floor(x / y), nil
		})
}

// mod follows floored semantics: the result takes the sign of the divisor
func mod(a, b Value) (Value, error) {
	return arith(a, b,
		func(x, y *big.Int) (*big.Int, error) {
			if y.Sign() == 0 {
				return nil, ErrDivisionByZero
			}
			_, m := floorDivMod(x, y)
			return m, nil
		},
		func(x, y float64) (float64, error) {
			if y == 0 {
				return 0, ErrDivisionByZero
			}
			r := math.Mod(x, y)
			if r != 0 && (r < 0) != (y < 0) {
				r += y
			}
			return r, nil
		})
}

func power(a, b Value) (Value, error) {
	if a.i != nil && b.i != nil && b.i.Sign() >= 0 {
		if a.i.CmpAbs(bigOne) > 0 {
			// the result has at least (bits(a)-1)*b bits
			if !b.i.IsInt64() || b.i.Int64() > maxIntBits || int64(a.i.BitLen()-1)*b.i.Int64() > maxIntBits {
				return Value{}, ErrIntTooLarge
			}
		}
		return checkedInt(new(big.Int).Exp(a.i, b.i, nil))
	}
	x, y, err := floats(a, b)
	if err != nil {
		return Value{}, err
	}
	if x == 0 && y < 0 {
		return Value{}, ErrDivisionByZero
	}
	if x < 0 && y != math.Trunc(y) {
		return Value{}, ErrDomain
	}
	r := math.Pow(x, y)
	if math.IsInf(r, 0) && !math.IsInf(x, 0) && !math.IsInf(y, 0) {
		return Value{}, ErrRange
	}
	return Float(r), nil
}

func negate(a Value) Value {
	if a.i != nil {
		return bigValue(new(big.Int).Neg(a.i))
	}
	return Float(-a.f)
}

// compare orders a and b exactly when both are integers
func compare(a, b Value) int {
	if a.i != nil && b.i != nil {
		return a.i.Cmp(b.i)
	}
	switch {
	case a.f < b.f:
		return -1
	case a.f > b.f:
		return 1
	}
	return 0
}

// toInt truncates an integral float into an exact integer
func toInt(f float64) (*big.Int, error) {
	if math.IsInf(f, 0) {
		return nil, errors.New("cannot convert float infinity to integer")
	}
	if math.IsNaN(f) {
		return nil, errors.New("cannot convert float NaN to integer")
	}
	i, _ := new(big.Float).SetFloat64(f).Int(nil)
	return i, nil
}
