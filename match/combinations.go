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

import "strings"

// Combinations lists the literal forms the pattern can take, with
// each placeholder rendered as "%*%".  At most limit forms are
// returned; a limit of zero or less means 256.
//
// Two patterns that share a combination can match the same input.
func (p *Pattern) Combinations(limit int) []string {
	if limit <= 0 {
		limit = 256
	}
	forms := combine(p.Seq, []string{""}, limit)

	seen := make(map[string]bool, len(forms))
	acc := make([]string, 0, len(forms))
	for _, f := range forms {
		f = Normalize(f)
		if seen[f] {
			continue
		}
		seen[f] = true
		acc = append(acc, f)
	}
	return acc
}

func combine(seq Sequence, prefixes []string, limit int) []string {
	for _, seg := range seq {
		switch s := seg.(type) {
		case *Literal:
			for i := range prefixes {
				prefixes[i] += s.Text
			}
		case *Placeholder:
			for i := range prefixes {
				prefixes[i] += "%*%"
			}
		case *Optional:
			present := combine(s.Seq, copyStrings(prefixes), limit)
			prefixes = capped(append(present, prefixes...), limit)
		case *Choice:
			var acc []string
			for _, alt := range s.Alts {
				acc = append(acc, combine(alt.Seq, copyStrings(prefixes), limit)...)
				if limit <= len(acc) {
					break
				}
			}
			prefixes = capped(acc, limit)
		}
	}
	return prefixes
}

func copyStrings(xs []string) []string {
	acc := make([]string, len(xs))
	copy(acc, xs)
	return acc
}

func capped(xs []string, limit int) []string {
	if limit < len(xs) {
		return xs[:limit]
	}
	return xs
}

// Overlaps reports whether two patterns share a combination.
func Overlaps(a, b *Pattern, limit int) bool {
	have := make(map[string]bool)
	for _, c := range a.Combinations(limit) {
		have[strings.ToLower(c)] = true
	}
	for _, c := range b.Combinations(limit) {
		if have[strings.ToLower(c)] {
			return true
		}
	}
	return false
}
