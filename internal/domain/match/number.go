package match

import (
	"encoding/json"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

// domain is the numeric domain a number is compared in. Wider domains win:
// if either side is a float both compare as floats, else if either side is
// signed both compare as signed integers, else as unsigned integers.
type domain int

const (
	domainUnsigned domain = iota
	domainSigned
	domainFloat
)

type number struct {
	domain domain
	u      uint64
	i      int64
	f      float64
}

// toNumber converts a number-typed value. JSON numbers without a fraction or
// exponent are integers: unsigned unless negative. Go signed integer types are
// signed whatever their value.
func toNumber(v any) number {
	switch n := v.(type) {
	case json.Number:
		return parseJSONNumber(string(n))
	case *big.Int:
		return fromBigInt(n)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number{domain: domainSigned, i: rv.Int()}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return number{domain: domainUnsigned, u: rv.Uint()}
	default:
		return number{domain: domainFloat, f: rv.Float()}
	}
}

func parseJSONNumber(s string) number {
	if !strings.ContainsAny(s, ".eE") {
		if strings.HasPrefix(s, "-") {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return number{domain: domainSigned, i: i}
			}
		} else if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return number{domain: domainUnsigned, u: u}
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return number{domain: domainFloat, f: math.NaN()}
	}
	return number{domain: domainFloat, f: f}
}

// fromBigInt converts the arbitrary-precision integers jq arithmetic
// produces. Values beyond 64 bits compare as floats.
func fromBigInt(b *big.Int) number {
	switch {
	case b.Sign() >= 0 && b.IsUint64():
		return number{domain: domainUnsigned, u: b.Uint64()}
	case b.IsInt64():
		return number{domain: domainSigned, i: b.Int64()}
	default:
		f, _ := new(big.Float).SetInt(b).Float64()
		return number{domain: domainFloat, f: f}
	}
}

func (n number) float() float64 {
	switch n.domain {
	case domainUnsigned:
		return float64(n.u)
	case domainSigned:
		return float64(n.i)
	default:
		return n.f
	}
}

// signed returns n as int64. An unsigned value above math.MaxInt64 has no
// signed representation.
func (n number) signed() (int64, bool) {
	switch n.domain {
	case domainUnsigned:
		if n.u > math.MaxInt64 {
			return 0, false
		}
		return int64(n.u), true
	case domainSigned:
		return n.i, true
	default:
		return 0, false
	}
}

func numbersEqual(a, b any) bool {
	x, y := toNumber(a), toNumber(b)
	switch max(x.domain, y.domain) {
	case domainFloat:
		return x.float() == y.float()
	case domainSigned:
		xi, okX := x.signed()
		yi, okY := y.signed()
		return okX && okY && xi == yi
	default:
		return x.u == y.u
	}
}
