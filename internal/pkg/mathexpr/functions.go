package mathexpr

import (
	"errors"
	"fmt"
	"math"
	"math/big"
)

type function struct {
	minArgs int
	maxArgs int // -1 for variadic
	call    func(args []Value) (Value, error)
}

var constants = map[string]Value{
	"pi":  Float(math.Pi),
	"e":   Float(math.E),
	"tau": Float(2 * math.Pi),
	"inf": Float(math.Inf(1)),
	"nan": Float(math.NaN()),
}

var functions = map[string]function{
	"sqrt": unaryFloat(func(x float64) (float64, error) {
		if x < 0 {
			return 0, ErrDomain
		}
		return math.Sqrt(x), nil
	}),
	"cbrt":  unaryFloat(pure(math.Cbrt)),
	"exp":   unaryFloat(pure(math.Exp)),
	"expm1": unaryFloat(pure(math.Expm1)),
	"log":   {minArgs: 1, maxArgs: 2, call: logFn},
	"log10": unaryFloat(positive(math.Log10)),
	"log2":  unaryFloat(positive(math.Log2)),
	"log1p": unaryFloat(func(x float64) (float64, error) {
		if x <= -1 {
			return 0, ErrDomain
		}
		return math.Log1p(x), nil
	}),

	"sin":   unaryFloat(pure(math.Sin)),
	"cos":   unaryFloat(pure(math.Cos)),
	"tan":   unaryFloat(pure(math.Tan)),
	"asin":  unaryFloat(unitRange(math.Asin)),
	"acos":  unaryFloat(unitRange(math.Acos)),
	"atan":  unaryFloat(pure(math.Atan)),
	"sinh":  unaryFloat(pure(math.Sinh)),
	"cosh":  unaryFloat(pure(math.Cosh)),
	"tanh":  unaryFloat(pure(math.Tanh)),
	"asinh": unaryFloat(pure(math.Asinh)),
	"acosh": unaryFloat(func(x float64) (float64, error) {
		if x < 1 {
			return 0, ErrDomain
		}
		return math.Acosh(x), nil
	}),
	"atanh": unaryFloat(func(x float64) (float64, error) {
		if x <= -1 || x >= 1 {
			return 0, ErrDomain
		}
		return math.Atanh(x), nil
	}),
	"degrees": unaryFloat(func(x float64) (float64, error) { return x * 180 / math.Pi, nil }),
	"radians": unaryFloat(func(x float64) (float64, error) { return x * math.Pi / 180, nil }),

	"erf":    unaryFloat(pure(math.Erf)),
	"erfc":   unaryFloat(pure(math.Erfc)),
	"gamma":  unaryFloat(gammaFn),
	"lgamma": unaryFloat(lgammaFn),
	"fabs":   unaryFloat(pure(math.Abs)),

	"floor": unaryInt(math.Floor),
	"ceil":  unaryInt(math.Ceil),
	"trunc": unaryInt(math.Trunc),

	"atan2":     binaryFloat(func(y, x float64) (float64, error) { return math.Atan2(y, x), nil }),
	"copysign":  binaryFloat(func(x, y float64) (float64, error) { return math.Copysign(x, y), nil }),
	"fmod":      binaryFloat(nonZeroDivisor(math.Mod)),
	"remainder": binaryFloat(nonZeroDivisor(math.Remainder)),
	"hypot":     {minArgs: 0, maxArgs: -1, call: hypotFn},
	"fsum":      {minArgs: 0, maxArgs: -1, call: fsumFn},
	"prod":      {minArgs: 0, maxArgs: -1, call: prodFn},

	"factorial": {minArgs: 1, maxArgs: 1, call: factorialFn},
	"comb":      {minArgs: 2, maxArgs: 2, call: combFn},
	"perm":      {minArgs: 1, maxArgs: 2, call: permFn},
	"isqrt":     {minArgs: 1, maxArgs: 1, call: isqrtFn},
	"gcd":       {minArgs: 0, maxArgs: -1, call: gcdFn},
	"lcm":       {minArgs: 0, maxArgs: -1, call: lcmFn},

	"abs": {minArgs: 1, maxArgs: 1, call: func(args []Value) (Value, error) {
		if args[0].i != nil {
			return bigValue(new(big.Int).Abs(args[0].i)), nil
		}
		return Float(math.Abs(args[0].f)), nil
	}},
	"round": {minArgs: 1, maxArgs: 2, call: roundFn},
	"min":   {minArgs: 2, maxArgs: -1, call: extremum(-1)},
	"max":   {minArgs: 2, maxArgs: -1, call: extremum(1)},
	"pow":   {minArgs: 2, maxArgs: 3, call: powFn},
}

// IsAllowed reports whether name is an allow-listed constant or function
func IsAllowed(name string) bool {
	if _, ok := constants[name]; ok {
		return true
	}
	_, ok := functions[name]
	return ok
}

// unaryFloat wraps fn; a finite argument overflowing to infinity is a range error
func unaryFloat(fn func(float64) (float64, error)) function {
	return function{minArgs: 1, maxArgs: 1, call: func(args []Value) (Value, error) {
		x, err := args[0].float()
		if err != nil {
			return Value{}, err
		}
		r, err := fn(x)
		if err != nil {
			return Value{}, err
		}
		if math.IsInf(r, 0) && !math.IsInf(x, 0) {
			return Value{}, ErrRange
		}
		return Float(r), nil
	}}
}

func binaryFloat(fn func(x, y float64) (float64, error)) function {
	return function{minArgs: 2, maxArgs: 2, call: func(args []Value) (Value, error) {
		x, err := args[0].float()
		if err != nil {
			return Value{}, err
		}
		y, err := args[1].float()
		if err != nil {
			return Value{}, err
		}
		r, err := fn(x, y)
		if err != nil {
			return Value{}, err
		}
		return Float(r), nil
	}}
}

func unaryInt(fn func(float64) float64) function {
	return function{minArgs: 1, maxArgs: 1, call: func(args []Value) (Value, error) {
		if args[0].i != nil {
			return args[0], nil
		}
		i, err := toInt(fn(args[0].f))
		if err != nil {
			return Value{}, err
		}
		return bigValue(i), nil
	}}
}

func pure(fn func(float64) float64) func(float64) (float64, error) {
	return func(x float64) (float64, error) { return fn(x), nil }
}

func positive(fn func(float64) float64) func(float64) (float64, error) {
	return func(x float64) (float64, error) {
		if x <= 0 {
			return 0, ErrDomain
		}
		return fn(x), nil
	}
}

func unitRange(fn func(float64) float64) func(float64) (float64, error) {
	return func(x float64) (float64, error) {
		if x < -1 || x > 1 {
			return 0, ErrDomain
		}
		return fn(x), nil
	}
}

func nonZeroDivisor(fn func(x, y float64) float64) func(x, y float64) (float64, error) {
	return func(x, y float64) (float64, error) {
		if y == 0 || math.IsInf(x, 0) {
			return 0, ErrDomain
		}
		return fn(x, y), nil
	}
}

// isNonPositiveInt reports the poles of the gamma function
func isNonPositiveInt(x float64) bool {
	return x <= 0 && x == math.Trunc(x)
}

func gammaFn(x float64) (float64, error) {
	if isNonPositiveInt(x) || math.IsInf(x, -1) {
		return 0, ErrDomain
	}
	return math.Gamma(x), nil
}

func lgammaFn(x float64) (float64, error) {
	if isNonPositiveInt(x) {
		return 0, ErrDomain
	}
	r, _ := math.Lgamma(x)
	return r, nil
}

func logFn(args []Value) (Value, error) {
	x, err := args[0].float()
	if err != nil {
		return Value{}, err
	}
	if x <= 0 {
		return Value{}, ErrDomain
	}
	if len(args) == 1 {
		return Float(math.Log(x)), nil
	}
	base, err := args[1].float()
	if err != nil {
		return Value{}, err
	}
	if base <= 0 || base == 1 {
		return Value{}, ErrDomain
	}
	return Float(math.Log(x) / math.Log(base)), nil
}

func hypotFn(args []Value) (Value, error) {
	h := 0.0
	for _, a := range args {
		x, err := a.float()
		if err != nil {
			return Value{}, err
		}
		h = math.Hypot(h, x)
	}
	return Float(h), nil
}

func fsumFn(args []Value) (Value, error) {
	// Kahan summation
	var sum, c float64
	for _, a := range args {
		x, err := a.float()
		if err != nil {
			return Value{}, err
		}
		y := x - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}
	return Float(sum), nil
}

func prodFn(args []Value) (Value, error) {
	result := Int(1)
	for _, a := range args {
		var err error
		if result, err = mul(result, a); err != nil {
			return Value{}, err
		}
	}
	return result, nil
}

func extremum(sign int) func(args []Value) (Value, error) {
	return func(args []Value) (Value, error) {
		best := args[0]
		for _, a := range args[1:] {
			if compare(a, best) == sign {
				best = a
			}
		}
		return best, nil
	}
}

func roundFn(args []Value) (Value, error) {
	x := args[0]
	if len(args) == 1 {
		if x.i != nil {
			return x, nil
		}
		i, err := toInt(math.RoundToEven(x.f))
		if err != nil {
			return Value{}, err
		}
		return bigValue(i), nil
	}

	nd := args[1]
	if nd.i == nil {
		return Value{}, errors.New("round() ndigits must be an integer")
	}
	if !nd.i.IsInt64() {
		return Value{}, errors.New("round() ndigits too large")
	}
	n := nd.i.Int64()

	if x.i != nil {
		if n >= 0 {
			return x, nil
		}
		if -n > maxIntBits {
			return Int(0), nil
		}
		// round half to even at 10^-n
		p := new(big.Int).Exp(big.NewInt(10), big.NewInt(-n), nil)
		q, r := floorDivMod(x.i, p)
		c := new(big.Int).Lsh(r, 1).Cmp(p)
		if c > 0 || (c == 0 && q.Bit(0) == 1) {
			q.Add(q, bigOne)
		}
		return checkedInt(q.Mul(q, p))
	}

	if n > 308 || n < -308 || math.IsInf(x.f, 0) || math.IsNaN(x.f) {
		return x, nil
	}
	scale := math.Pow(10, float64(n))
	return Float(math.RoundToEven(x.f*scale) / scale), nil
}

func powFn(args []Value) (Value, error) {
	if len(args) == 2 {
		return power(args[0], args[1])
	}
	base, exp, m := args[0], args[1], args[2]
	if base.i == nil || exp.i == nil || m.i == nil {
		return Value{}, errors.New("pow() 3rd argument not allowed unless all arguments are integers")
	}
	if m.i.Sign() == 0 {
		return Value{}, errors.New("pow() 3rd argument cannot be 0")
	}
	if exp.i.Sign() < 0 {
		return Value{}, errors.New("pow() negative exponent with modulus is not supported")
	}
	abs := new(big.Int).Abs(m.i)
	b := new(big.Int).Mod(base.i, abs)
	r := new(big.Int).Exp(b, exp.i, abs)
	// the result takes the sign of the modulus
	if m.i.Sign() < 0 && r.Sign() != 0 {
		r.Add(r, m.i)
	}
	return bigValue(r), nil
}

// nonNegativeInts extracts integer arguments, rejecting floats and negatives
func nonNegativeInts(name string, args []Value) ([]*big.Int, error) {
	out := make([]*big.Int, len(args))
	for i, a := range args {
		if a.i == nil {
			return nil, fmt.Errorf("%s() only accepts integers", name)
		}
		if a.i.Sign() < 0 {
			return nil, fmt.Errorf("%s() only accepts non-negative integers", name)
		}
		out[i] = a.i
	}
	return out, nil
}

func factorialFn(args []Value) (Value, error) {
	n, err := nonNegativeInts("factorial", args)
	if err != nil {
		return Value{}, err
	}
	result := big.NewInt(1)
	for i := big.NewInt(2); i.Cmp(n[0]) <= 0; i.Add(i, bigOne) {
		result.Mul(result, i)
		if result.BitLen() > maxIntBits {
			return Value{}, ErrIntTooLarge
		}
	}
	return bigValue(result), nil
}

// fallingProduct multiplies n, n-1, ... for k factors
func fallingProduct(n, k *big.Int) (*big.Int, error) {
	result := big.NewInt(1)
	f := new(big.Int).Set(n)
	for i := new(big.Int); i.Cmp(k) < 0; i.Add(i, bigOne) {
		result.Mul(result, f)
		if result.BitLen() > maxIntBits {
			return nil, ErrIntTooLarge
		}
		f.Sub(f, bigOne)
	}
	return result, nil
}

func permFn(args []Value) (Value, error) {
	nk, err := nonNegativeInts("perm", args)
	if err != nil {
		return Value{}, err
	}
	n := nk[0]
	k := n
	if len(nk) == 2 {
		k = nk[1]
	}
	if k.Cmp(n) > 0 {
		return Int(0), nil
	}
	r, err := fallingProduct(n, k)
	if err != nil {
		return Value{}, err
	}
	return bigValue(r), nil
}

func combFn(args []Value) (Value, error) {
	nk, err := nonNegativeInts("comb", args)
	if err != nil {
		return Value{}, err
	}
	n, k := nk[0], nk[1]
	if k.Cmp(n) > 0 {
		return Int(0), nil
	}
	if rest := new(big.Int).Sub(n, k); rest.Cmp(k) < 0 {
		k = rest
	}
	// C(n, i) = C(n, i-1) * (n-k'+i) / i stays integral at every step
	result := big.NewInt(1)
	top := new(big.Int).Sub(n, k)
	for i := big.NewInt(1); i.Cmp(k) <= 0; i.Add(i, bigOne) {
		top.Add(top, bigOne)
		result.Mul(result, top)
		result.Quo(result, i)
		if result.BitLen() > maxIntBits {
			return Value{}, ErrIntTooLarge
		}
	}
	return bigValue(result), nil
}

func isqrtFn(args []Value) (Value, error) {
	n, err := nonNegativeInts("isqrt", args)
	if err != nil {
		return Value{}, err
	}
	return bigValue(new(big.Int).Sqrt(n[0])), nil
}

func integers(name string, args []Value) ([]*big.Int, error) {
	out := make([]*big.Int, len(args))
	for i, a := range args {
		if a.i == nil {
			return nil, fmt.Errorf("%s() requires integer arguments", name)
		}
		out[i] = new(big.Int).Abs(a.i)
	}
	return out, nil
}

func gcdFn(args []Value) (Value, error) {
	ns, err := integers("gcd", args)
	if err != nil {
		return Value{}, err
	}
	g := new(big.Int)
	for _, n := range ns {
		g.GCD(nil, nil, g, n)
	}
	return bigValue(g), nil
}

func lcmFn(args []Value) (Value, error) {
	ns, err := integers("lcm", args)
	if err != nil {
		return Value{}, err
	}
	l := big.NewInt(1)
	for _, n := range ns {
		if n.Sign() == 0 {
			return Int(0), nil
		}
		g := new(big.Int).GCD(nil, nil, l, n)
		l.Mul(l, new(big.Int).Quo(n, g))
		if l.BitLen() > maxIntBits {
			return Value{}, ErrIntTooLarge
		}
	}
	return bigValue(l), nil
}
