/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package core

import (
	"encoding/json"
	"math"
	"time"
)

// Canonicalize round-trips x through JSON, so maps become
// map[string]interface{}, numbers become float64, and so on.
//
// Schema validators and JSON transports want values in this form.
func Canonicalize(x interface{}) (interface{}, error) {
	js, err := json.Marshal(&x)
	if err != nil {
		return nil, err
	}
	var y interface{}
	if err = json.Unmarshal(js, &y); err != nil {
		return nil, err
	}
	return y, nil
}

// Timestamp returns a string representing the given time in
// RFC3339Nano.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// FromData converts a scalar decoded from JSON or YAML to a Value.
// Integers, including integral json.Numbers, become int64.  Other
// numbers become float64.  Everything else is returned as is.
func FromData(x interface{}) Value {
	switch vv := x.(type) {
	case int:
		return int64(vv)
	case int32:
		return int64(vv)
	case uint64:
		if vv <= math.MaxInt64 {
			return int64(vv)
		}
		return float64(vv)
	case float32:
		return float64(vv)
	case json.Number:
		if i, err := vv.Int64(); err == nil {
			return i
		}
		if f, err := vv.Float64(); err == nil {
			return f
		}
		return vv.String()
	}
	return x
}
