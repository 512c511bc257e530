package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Identity keys are comparable, normalised forms of id and qualifier values.
type (
	numberKey string
	bytesKey  string
)

// sameIdentity compares two id values by their domain value. Numbers compare
// across representations (int64(1), 1.0, json.Number("1") and decimal 1.00
// are equal). nil equals nothing, not even nil.
func sameIdentity(a, b interface{}) bool {
	if a == nil || b == nil {
		return false
	}
	return identityKey(a) == identityKey(b)
}

func identityKey(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return val
	case bool:
		return val
	case int:
		return numberKey(strconv.FormatInt(int64(val), 10))
	case int8:
		return numberKey(strconv.FormatInt(int64(val), 10))
	case int16:
		return numberKey(strconv.FormatInt(int64(val), 10))
	case int32:
		return numberKey(strconv.FormatInt(int64(val), 10))
	case int64:
		return numberKey(strconv.FormatInt(val, 10))
	case uint:
		return numberKey(strconv.FormatUint(uint64(val), 10))
	case uint8:
		return numberKey(strconv.FormatUint(uint64(val), 10))
	case uint16:
		return numberKey(strconv.FormatUint(uint64(val), 10))
	case uint32:
		return numberKey(strconv.FormatUint(uint64(val), 10))
	case uint64:
		return numberKey(strconv.FormatUint(val, 10))
	case float32:
		return floatKey(float64(val))
	case float64:
		return floatKey(val)
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return val.String()
		}
		return numberKey(d.String())
	case decimal.Decimal:
		return numberKey(val.String())
	case []byte:
		return bytesKey(val)
	case time.Time:
		return val.Round(0).UTC()
	}
	if reflect.TypeOf(v).Comparable() {
		return v
	}
	return fmt.Sprintf("%T:%v", v, v)
}

func floatKey(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Sprint(f)
	}
	return numberKey(decimal.NewFromFloat(f).String())
}
