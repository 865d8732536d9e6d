/*
Copyright © 2026 SUSE LLC
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseID decodes the "id" field of a record.  Producers write it either as a
// number or as a hexadecimal string, with or without a 0x prefix.  Fractional
// numbers are truncated; a missing or null id is zero.
func ParseID(raw json.RawMessage) (uint64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, fmt.Errorf("invalid id %s: %w", raw, err)
		}
		return parseHexID(text)
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err != nil {
		return 0, fmt.Errorf("invalid id %s: %w", raw, err)
	}
	if value, err := strconv.ParseUint(number.String(), 10, 64); err == nil {
		return value, nil
	}
	if value, err := number.Int64(); err == nil {
		return uint64(value), nil
	}
	value, err := number.Float64()
	if err != nil {
		return 0, fmt.Errorf("invalid id %s: %w", raw, err)
	}
	if value >= math.MaxUint64 {
		return math.MaxUint64, nil
	}
	if value < 0 {
		// Negative ids keep their two's complement bits, as integers do.
		return uint64(int64(max(value, math.MinInt64))), nil
	}
	return uint64(value), nil
}

func parseHexID(text string) (uint64, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
	value, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hex id %q: %w", text, err)
	}
	return value, nil
}
