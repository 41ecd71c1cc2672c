package numeric

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// MaxSafeFloat is the largest integer magnitude a float64 represents exactly
// (2^53 - 1). Beyond it, adjacent integers collapse onto the same float.
const MaxSafeFloat = 1<<53 - 1

// OutOfRangeError reports a value that cannot be represented as an exact
// signed 64-bit integer.
type OutOfRangeError struct {
	// Value is the textual form of the offending value.
	Value string

	// Reason describes why the value is unrepresentable.
	Reason string
}

// Error implements the error interface.
func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("value %s out of 64-bit integer range: %s", e.Value, e.Reason)
}

// IsOutOfRange returns true if err is (or wraps) an OutOfRangeError.
func IsOutOfRange(err error) bool {
	var oor *OutOfRangeError
	return errors.As(err, &oor)
}

// Encode returns the driver-ready representation of v.
//
// go-sqlite3 binds int64 natively to INTEGER storage, so the encoding is the
// identity. It exists so every 64-bit value crosses the storage boundary
// through one declared point instead of ad hoc conversions scattered through
// call sites.
func Encode(v int64) int64 { return v }

// Decode returns the domain value for a raw INTEGER column value.
// Inverse of Encode: Decode(Encode(x)) == x for every int64 x.
func Decode(raw int64) int64 { return raw }

// EncodeFloat converts a float64 into an exact int64.
// Fails with *OutOfRangeError when f is not an integer, is NaN or infinite,
// or has magnitude beyond MaxSafeFloat (where float64 can no longer
// distinguish adjacent integers).
func EncodeFloat(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, &OutOfRangeError{Value: strconv.FormatFloat(f, 'g', -1, 64), Reason: "not a finite number"}
	}
	if f != math.Trunc(f) {
		return 0, &OutOfRangeError{Value: strconv.FormatFloat(f, 'g', -1, 64), Reason: "not an integer"}
	}
	if f > MaxSafeFloat || f < -MaxSafeFloat {
		return 0, &OutOfRangeError{
			Value:  strconv.FormatFloat(f, 'g', -1, 64),
			Reason: "magnitude exceeds exact float64 integer range (2^53-1)",
		}
	}
	return int64(f), nil
}

// DecodeValue converts a raw driver value into an exact int64.
//
// Accepted representations:
//   - int64: returned verbatim (the exact-integer retrieval mode)
//   - float64: only when integral and within MaxSafeFloat; a lossy float is
//     an error, never rounded
//   - []byte / string: parsed as a base-10 signed 64-bit integer
//
// Anything else fails with *OutOfRangeError. This is the guard against a
// column that was created with the engine's default numeric affinity and
// silently degraded to REAL storage.
func DecodeValue(raw any) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return EncodeFloat(v)
	case []byte:
		return parseInt64(string(v))
	case string:
		return parseInt64(v)
	case nil:
		return 0, &OutOfRangeError{Value: "NULL", Reason: "no integer value present"}
	default:
		return 0, &OutOfRangeError{Value: fmt.Sprintf("%v", raw), Reason: fmt.Sprintf("unsupported storage type %T", raw)}
	}
}

func parseInt64(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, &OutOfRangeError{Value: s, Reason: "not a signed 64-bit integer"}
	}
	return v, nil
}

// CheckedAdd returns a+b, failing with *OutOfRangeError on signed overflow.
// All counter and balance arithmetic goes through here so a delta can never
// silently wrap.
func CheckedAdd(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, &OutOfRangeError{
			Value:  fmt.Sprintf("%d + %d", a, b),
			Reason: "sum overflows signed 64-bit range",
		}
	}
	return sum, nil
}

// CheckedMul returns a*b, failing with *OutOfRangeError on signed overflow.
func CheckedMul(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	prod := a * b
	if prod/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, &OutOfRangeError{
			Value:  fmt.Sprintf("%d * %d", a, b),
			Reason: "product overflows signed 64-bit range",
		}
	}
	return prod, nil
}

// InRange reports whether v lies in the closed interval [lo, hi], compared in
// the native integer domain. Single-unit differences (one nanosecond apart)
// stay distinguishable, which a float comparison cannot guarantee.
func InRange(v, lo, hi int64) bool {
	return v >= lo && v <= hi
}
