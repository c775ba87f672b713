package codec

import "math/big"

// ValueKind discriminates the payload actually carried by a Value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInt
	KindFloat
)

// Value is the typed semantic result of a decode, or the typed input to
// an encode. Only one of the fields is meaningful, selected by Kind.
type Value struct {
	Kind ValueKind
	Str  string
	Int  *big.Int
	Flt  float64
}

func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }
func IntValue(i *big.Int) Value  { return Value{Kind: KindInt, Int: i} }
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Flt: f} }

// AsString coerces the value to a string for the C_Register.GetString binding.
func (v Value) AsString() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInt:
		if v.Int == nil {
			return "0"
		}
		return v.Int.String()
	case KindFloat:
		return big.NewFloat(v.Flt).Text('f', -1)
	default:
		return ""
	}
}

// AsInt coerces the value to an integer for the C_Register.GetInt binding.
// Returns ok=false when the coercion is not representable.
func (v Value) AsInt() (*big.Int, bool) {
	switch v.Kind {
	case KindInt:
		return v.Int, true
	case KindFloat:
		bi, _ := big.NewFloat(v.Flt).Int(nil)
		return bi, true
	case KindString:
		bi, ok := new(big.Int).SetString(v.Str, 10)
		return bi, ok
	default:
		return nil, false
	}
}

// AsFloat coerces the value to a float64 for the C_Register.GetFloat binding.
func (v Value) AsFloat() (float64, bool) {
	switch v.Kind {
	case KindFloat:
		return v.Flt, true
	case KindInt:
		if v.Int == nil {
			return 0, true
		}
		f := new(big.Float).SetInt(v.Int)
		out, _ := f.Float64()
		return out, true
	case KindString:
		f, _, err := big.ParseFloat(v.Str, 10, 64, big.ToNearestEven)
		if err != nil {
			return 0, false
		}
		out, _ := f.Float64()
		return out, true
	default:
		return 0, false
	}
}

// AsBool coerces the value to a bool for the C_Register.GetBool binding.
// Nonzero numerics and the strings "true"/"1" are truthy.
func (v Value) AsBool() (bool, bool) {
	switch v.Kind {
	case KindInt:
		return v.Int != nil && v.Int.Sign() != 0, true
	case KindFloat:
		return v.Flt != 0, true
	case KindString:
		switch v.Str {
		case "true", "1":
			return true, true
		case "false", "0", "":
			return false, true
		default:
			return false, false
		}
	default:
		return false, false
	}
}
