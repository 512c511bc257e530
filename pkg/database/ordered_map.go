package database

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// KeyVal is one property of an OrderedMap.
type KeyVal struct {
	Key string
	Val interface{}
}

// OrderedMap is an entity instance: property values in declaration order.
// Lookups are linear; entities have few properties.
type OrderedMap []KeyVal

// MarshalJSON implements the json.Marshaler interface.
func (om OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range om {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := json.Marshal(JSONValue(kv.Val))
		if err != nil {
			return nil, fmt.Errorf("property '%s': %w", kv.Key, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Get returns the value for a key
func (om OrderedMap) Get(key string) (interface{}, bool) {
	for _, kv := range om {
		if kv.Key == key {
			return kv.Val, true
		}
	}
	return nil, false
}

// Set replaces the value of key, or appends it.
func (om *OrderedMap) Set(key string, val interface{}) {
	for i := range *om {
		if (*om)[i].Key == key {
			(*om)[i].Val = val
			return
		}
	}
	*om = append(*om, KeyVal{Key: key, Val: val})
}

// Keys lists the keys in order.
func (om OrderedMap) Keys() []string {
	keys := make([]string, len(om))
	for i, kv := range om {
		keys[i] = kv.Key
	}
	return keys
}

// ToMap converts to a standard map (losing order)
func (om OrderedMap) ToMap() map[string]interface{} {
	m := make(map[string]interface{}, len(om))
	for _, kv := range om {
		m[kv.Key] = kv.Val
	}
	return m
}

// String implements fmt.Stringer
func (om OrderedMap) String() string {
	b, err := om.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("%v", []KeyVal(om))
	}
	return string(b)
}

// JSONValue rewrites values encoding/json cannot encode as they are: maps
// keyed by anything but strings get their keys formatted with fmt.Sprint.
func JSONValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, item := range val {
			m[fmt.Sprint(k)] = JSONValue(item)
		}
		return m
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = JSONValue(item)
		}
		return out
	default:
		return v
	}
}
