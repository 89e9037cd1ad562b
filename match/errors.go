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

package match

import (
	"errors"
	"fmt"
)

// PatternCompileError reports malformed pattern text.
type PatternCompileError struct {
	Pattern string
	Offset  int
	Msg     string
}

func (e *PatternCompileError) Error() string {
	return fmt.Sprintf("pattern %q: %s at offset %d", e.Pattern, e.Msg, e.Offset)
}

// ErrFrameBudget occurs when a match attempt uses more backtrack
// frames than the Matcher allows.
var ErrFrameBudget = errors.New("backtrack frame budget exhausted")
