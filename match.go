// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package cmdb

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

// KeyMatches reports whether a record's key value identifies the same entry
// as target.
//
// The appliance is loosely typed: a key declared as an integer may come back
// as a string and vice versa. Values match when they are natively equal, or
// failing that, when their canonical string forms are equal. 1 matches "1",
// but "01" does not match 1.
func KeyMatches(candidate, target any) bool {
	if candidate == nil || target == nil {
		return candidate == nil && target == nil
	}
	if isComparable(candidate) && isComparable(target) && candidate == target {
		return true
	}
	return keyString(candidate) == keyString(target)
}

func isComparable(v any) bool {
	return reflect.TypeOf(v).Comparable()
}

// keyString renders a key value in its natural string form.
func keyString(v any) string {
	switch k := v.(type) {
	case string:
		return k
	case json.Number:
		return k.String()
	case bool:
		return strconv.FormatBool(k)
	case int:
		return strconv.FormatInt(int64(k), 10)
	case int8:
		return strconv.FormatInt(int64(k), 10)
	case int16:
		return strconv.FormatInt(int64(k), 10)
	case int32:
		return strconv.FormatInt(int64(k), 10)
	case int64:
		return strconv.FormatInt(k, 10)
	case uint:
		return strconv.FormatUint(uint64(k), 10)
	case uint8:
		return strconv.FormatUint(uint64(k), 10)
	case uint16:
		return strconv.FormatUint(uint64(k), 10)
	case uint32:
		return strconv.FormatUint(uint64(k), 10)
	case uint64:
		return strconv.FormatUint(k, 10)
	case float32:
		return strconv.FormatFloat(float64(k), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(k, 'f', -1, 64)
	case fmt.Stringer:
		return k.String()
	default:
		return fmt.Sprint(v)
	}
}

// indexOf returns the position of the first record whose key matches, or -1.
func indexOf(records []Record, key string, value any) int {
	for i, rec := range records {
		if KeyMatches(rec[key], value) {
			return i
		}
	}
	return -1
}
