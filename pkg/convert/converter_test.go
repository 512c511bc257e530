package convert

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bisegni/rowtree/pkg/shape"
)

func TestConvert(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

	tests := []struct {
		name string
		raw  interface{}
		typ  shape.Type
		want interface{}
	}{
		{"nil stays nil", nil, shape.TypeInt, nil},
		{"any json int", json.Number("42"), shape.TypeAny, int64(42)},
		{"any json float", json.Number("1.5"), shape.TypeAny, 1.5},
		{"any bytes", []byte("abc"), shape.TypeAny, "abc"},
		{"any passthrough", true, shape.TypeAny, true},
		{"string from bytes", []byte("x"), shape.TypeString, "x"},
		{"string from number", json.Number("7"), shape.TypeString, "7"},
		{"string from int", int64(7), shape.TypeString, "7"},
		{"int from json", json.Number("9"), shape.TypeInt, int64(9)},
		{"int from integral float", float64(3), shape.TypeInt, int64(3)},
		{"int from string", " 12 ", shape.TypeInt, int64(12)},
		{"int from bytes", []byte("5"), shape.TypeInt, int64(5)},
		{"int from int32", int32(4), shape.TypeInt, int64(4)},
		{"float from json", json.Number("2.25"), shape.TypeFloat, 2.25},
		{"float from int", int64(2), shape.TypeFloat, float64(2)},
		{"bool from string", "true", shape.TypeBool, true},
		{"bool from int", int64(0), shape.TypeBool, false},
		{"uuid from string", id.String(), shape.TypeUUID, id},
		{"uuid from raw bytes", id[:], shape.TypeUUID, id},
		{"bytes from string", "ab", shape.TypeBytes, []byte("ab")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Default.Convert(tt.raw, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertDecimal(t *testing.T) {
	for _, raw := range []interface{}{json.Number("10.50"), "10.50", []byte("10.50"), 10.5} {
		got, err := Default.Convert(raw, shape.TypeDecimal)
		require.NoError(t, err)
		d, ok := got.(decimal.Decimal)
		require.True(t, ok, "got %T", got)
		assert.True(t, d.Equal(decimal.RequireFromString("10.5")), "%v", raw)
	}
}

func TestConvertTime(t *testing.T) {
	want := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	for _, raw := range []interface{}{"2024-03-01T10:30:00Z", "2024-03-01 10:30:00", want.Unix(), want} {
		got, err := Default.Convert(raw, shape.TypeTime)
		require.NoError(t, err, "%v", raw)
		assert.True(t, want.Equal(got.(time.Time)), "%v converted to %v", raw, got)
	}

	custom := Scalars{TimeLayouts: []string{"02/01/2006"}}
	got, err := custom.Convert("01/03/2024", shape.TypeTime)
	require.NoError(t, err)
	assert.Equal(t, 2024, got.(time.Time).Year())
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  interface{}
		typ  shape.Type
	}{
		{"fractional int", 1.5, shape.TypeInt},
		{"text int", "abc", shape.TypeInt},
		{"bool out of range", int64(2), shape.TypeBool},
		{"bad decimal", "1,5", shape.TypeDecimal},
		{"bad time", "yesterday", shape.TypeTime},
		{"bad uuid", "not-a-uuid", shape.TypeUUID},
		{"bytes from int", int64(1), shape.TypeBytes},
		{"unknown type", "x", shape.Type(99)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Default.Convert(tt.raw, tt.typ)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConversion)
		})
	}
}

func TestConverterFunc(t *testing.T) {
	upper := ConverterFunc(func(raw interface{}, _ shape.Type) (interface{}, error) {
		return "converted", nil
	})
	got, err := upper.Convert("x", shape.TypeString)
	require.NoError(t, err)
	assert.Equal(t, "converted", got)
}
