// Package convert turns raw column values into the scalar types a shape
// declares.
package convert

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/bisegni/rowtree/pkg/shape"
)

// ErrConversion is the cause of every conversion failure.
var ErrConversion = errors.New("conversion failed")

// Converter converts a raw column value to the given type. A nil raw value
// converts to nil for every type.
type Converter interface {
	Convert(raw interface{}, t shape.Type) (interface{}, error)
}

// ConverterFunc adapts a function to the Converter interface.
type ConverterFunc func(raw interface{}, t shape.Type) (interface{}, error)

func (f ConverterFunc) Convert(raw interface{}, t shape.Type) (interface{}, error) {
	return f(raw, t)
}

// DefaultTimeLayouts are tried in order when a string is converted to time.
var DefaultTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Scalars is the default converter. Integers become int64, floats float64,
// decimals decimal.Decimal, times time.Time (UTC unless the value carries a
// zone) and uuids uuid.UUID.
type Scalars struct {
	// TimeLayouts overrides DefaultTimeLayouts when set.
	TimeLayouts []string
}

// Default is the converter used when none is configured.
var Default Converter = Scalars{}

func (s Scalars) Convert(raw interface{}, t shape.Type) (interface{}, error) {
	if raw == nil {
		return nil, nil
	}
	var (
		v   interface{}
		err error
	)
	switch t {
	case shape.TypeAny:
		v = toAny(raw)
	case shape.TypeString:
		v, err = toString(raw)
	case shape.TypeInt:
		v, err = toInt(raw)
	case shape.TypeFloat:
		v, err = toFloat(raw)
	case shape.TypeBool:
		v, err = toBool(raw)
	case shape.TypeDecimal:
		v, err = toDecimal(raw)
	case shape.TypeTime:
		v, err = s.toTime(raw)
	case shape.TypeUUID:
		v, err = toUUID(raw)
	case shape.TypeBytes:
		v, err = toBytes(raw)
	default:
		return nil, errors.Wrapf(ErrConversion, "unknown type %s", t)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "cannot convert %v (%T) to %s", raw, raw, t)
	}
	return v, nil
}

// toAny normalises what the row sources produce: json numbers become int64
// or float64 and byte slices become strings.
func toAny(raw interface{}) interface{} {
	switch v := raw.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case []byte:
		return string(v)
	}
	return raw
}

func toString(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case json.Number:
		return v.String(), nil
	case time.Time:
		return v.Format(time.RFC3339Nano), nil
	case fmt.Stringer:
		return v.String(), nil
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(v), nil
	}
	return "", ErrConversion
}

func toInt(raw interface{}) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return uintToInt(uint64(v))
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return uintToInt(v)
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return 0, errors.Wrap(ErrConversion, err.Error())
		}
		return floatToInt(f)
	case decimal.Decimal:
		if !v.Equal(v.Truncate(0)) {
			return 0, errors.Wrap(ErrConversion, "not an integer")
		}
		return v.IntPart(), nil
	case string:
		return parseInt(v)
	case []byte:
		return parseInt(string(v))
	}
	return 0, ErrConversion
}

func parseInt(s string) (int64, error) {
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errors.Wrap(ErrConversion, err.Error())
	}
	return i, nil
}

func uintToInt(u uint64) (int64, error) {
	if u > math.MaxInt64 {
		return 0, errors.Wrap(ErrConversion, "integer overflow")
	}
	return int64(u), nil
}

func floatToInt(f float64) (int64, error) {
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, errors.Wrap(ErrConversion, "not an integer")
	}
	return int64(f), nil
}

func toFloat(raw interface{}) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, errors.Wrap(ErrConversion, err.Error())
		}
		return f, nil
	case decimal.Decimal:
		f, _ := v.Float64()
		return f, nil
	case string:
		return parseFloat(v)
	case []byte:
		return parseFloat(string(v))
	}
	if i, err := toInt(raw); err == nil {
		return float64(i), nil
	}
	return 0, ErrConversion
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.Wrap(ErrConversion, err.Error())
	}
	return f, nil
}

func toBool(raw interface{}) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		return parseBool(v)
	case []byte:
		return parseBool(string(v))
	}
	i, err := toInt(raw)
	if err != nil || (i != 0 && i != 1) {
		return false, ErrConversion
	}
	return i == 1, nil
}

func parseBool(s string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, errors.Wrap(ErrConversion, err.Error())
	}
	return b, nil
}

func toDecimal(raw interface{}) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, nil
	case json.Number:
		return parseDecimal(v.String())
	case string:
		return parseDecimal(v)
	case []byte:
		return parseDecimal(string(v))
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	}
	i, err := toInt(raw)
	if err != nil {
		return decimal.Zero, ErrConversion
	}
	return decimal.NewFromInt(i), nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, errors.Wrap(ErrConversion, err.Error())
	}
	return d, nil
}

func (s Scalars) toTime(raw interface{}) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		return s.parseTime(v)
	case []byte:
		return s.parseTime(string(v))
	}
	// numbers are unix seconds
	secs, err := toInt(raw)
	if err != nil {
		return time.Time{}, ErrConversion
	}
	return time.Unix(secs, 0).UTC(), nil
}

func (s Scalars) parseTime(str string) (time.Time, error) {
	layouts := s.TimeLayouts
	if len(layouts) == 0 {
		layouts = DefaultTimeLayouts
	}
	str = strings.TrimSpace(str)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, str); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Wrapf(ErrConversion, "no layout matches %q", str)
}

func toUUID(raw interface{}) (uuid.UUID, error) {
	switch v := raw.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		return parseUUID(v)
	case []byte:
		if len(v) == 16 {
			id, err := uuid.FromBytes(v)
			if err != nil {
				return uuid.Nil, errors.Wrap(ErrConversion, err.Error())
			}
			return id, nil
		}
		return parseUUID(string(v))
	}
	return uuid.Nil, ErrConversion
}

func parseUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, errors.Wrap(ErrConversion, err.Error())
	}
	return id, nil
}

func toBytes(raw interface{}) ([]byte, error) {
	switch v := raw.(type) {
	case []byte:
		return append([]byte(nil), v...), nil
	case string:
		return []byte(v), nil
	}
	return nil, ErrConversion
}
