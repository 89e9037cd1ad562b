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
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/xStarless-Skyx/skparse/match"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// Kind is the role of a registered pattern.
type Kind int

const (
	Expression Kind = iota
	Condition
	Effect
)

func (k Kind) String() string {
	switch k {
	case Expression:
		return "expression"
	case Condition:
		return "condition"
	case Effect:
		return "effect"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "expression", "":
		return Expression, nil
	case "condition":
		return Condition, nil
	case "effect":
		return Effect, nil
	}
	return 0, fmt.Errorf("unknown kind %q", s)
}

// Priority levels.  Candidates with higher priority are tried first.
// Any int works; these are the conventional levels.
const (
	// PrioritySimple is for literals and other patterns that
	// can't match much.
	PrioritySimple = 400

	// PriorityCombined is for patterns that contain other
	// expressions along with some literal text.
	PriorityCombined = 300

	// PriorityProperty is for "the x of %y%" and "%y%'s x".
	PriorityProperty = 200

	// PriorityPatternMatchesEverything is for patterns like
	// "%object% %object%" that match nearly any text.
	PriorityPatternMatchesEverything = 100
)

// Handle identifies a registered entry.
type Handle string

// Registration describes a pattern producer.
//
// Exactly one of New and Terminal must be set.  For a terminal,
// Pattern is only a name.
type Registration struct {
	Owner    string
	Kind     Kind
	Pattern  string
	Priority int

	// Returns is the type the entry produces.  Defaults to object
	// for expressions and boolean for conditions.
	Returns *Type

	New      func() Element
	Terminal TerminalFunc

	Doc string
}

// Entry is a registered producer.
type Entry struct {
	Registration

	Handle Handle

	// Compiled is nil for terminals.
	Compiled *match.Pattern

	// Accepts has the accepted types for each placeholder.
	Accepts [][]*Type

	// Plural reports, for each placeholder, whether it takes more
	// than one value: written %*type% or with a plural type name.
	Plural []bool

	seq uint64
}

// Snapshot is an immutable view of the registry, ordered by
// priority (highest first) and then registration order.
type Snapshot struct {
	entries []*Entry
	byKind  [3][]*Entry
}

// Entries returns the entries of the given kind in resolution order.
// Don't modify the returned slice.
func (s *Snapshot) Entries(k Kind) []*Entry {
	if k < 0 || int(k) >= len(s.byKind) {
		return nil
	}
	return s.byKind[k]
}

// All returns every entry in resolution order.
func (s *Snapshot) All() []*Entry {
	return s.entries
}

// Len is the number of entries.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Find returns the entry with the given handle.
func (s *Snapshot) Find(h Handle) (*Entry, bool) {
	for _, e := range s.entries {
		if e.Handle == h {
			return e, true
		}
	}
	return nil, false
}

func newSnapshot(entries []*Entry) *Snapshot {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		return entries[i].seq < entries[j].seq
	})
	s := &Snapshot{
		entries: entries,
	}
	for _, e := range entries {
		s.byKind[e.Kind] = append(s.byKind[e.Kind], e)
	}
	return s
}

// Registry holds the registered producers.
//
// Readers get a Snapshot, which never changes.  Writers serialize
// among themselves and publish a new Snapshot.
type Registry struct {
	types  *TypeTable
	logger *zap.Logger

	// ConflictLimit caps the number of pattern combinations
	// compared when checking a new pattern for overlaps.
	ConflictLimit int

	mu   sync.Mutex
	seq  uint64
	snap atomic.Pointer[Snapshot]
}

// NewRegistry makes an empty Registry.  The logger can be nil.
func NewRegistry(types *TypeTable, logger *zap.Logger) *Registry {
	if types == nil {
		types = NewTypeTable()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		types:         types,
		logger:        logger,
		ConflictLimit: 64,
	}
	r.snap.Store(newSnapshot(nil))
	return r
}

// Types returns the registry's TypeTable.
func (r *Registry) Types() *TypeTable {
	return r.types
}

// Snapshot returns the current state of the registry.
func (r *Registry) Snapshot() *Snapshot {
	return r.snap.Load()
}

// MakeHandle computes the handle for a registration.
func MakeHandle(owner string, kind Kind, pattern string, returns *Type) Handle {
	h, _ := blake2b.New256(nil)
	for _, s := range []string{owner, kind.String(), pattern, returns.String()} {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return Handle(hex.EncodeToString(h.Sum(nil))[:16])
}

// Register compiles and adds a producer.
//
// A malformed pattern is a *match.PatternCompileError, and a pattern
// that names an unknown type is an *UnknownType.  Registering the
// same owner, kind, pattern, and return type twice is
// ErrDuplicateHandle.
func (r *Registry) Register(reg Registration) (Handle, error) {
	if (reg.New == nil) == (reg.Terminal == nil) {
		return "", &BadRegistration{
			Owner:   reg.Owner,
			Pattern: reg.Pattern,
			Msg:     "need exactly one of New and Terminal",
		}
	}
	if reg.Kind < Expression || Effect < reg.Kind {
		return "", &BadRegistration{
			Owner:   reg.Owner,
			Pattern: reg.Pattern,
			Msg:     "unknown kind " + reg.Kind.String(),
		}
	}
	if reg.Pattern == "" {
		return "", &BadRegistration{
			Owner: reg.Owner,
			Msg:   "empty pattern",
		}
	}
	if reg.Returns == nil {
		if reg.Kind == Condition {
			reg.Returns = TypeBoolean
		} else {
			reg.Returns = TypeObject
		}
	}

	e := &Entry{
		Registration: reg,
		Handle:       MakeHandle(reg.Owner, reg.Kind, reg.Pattern, reg.Returns),
	}

	if reg.New != nil {
		p, err := match.Compile(reg.Pattern)
		if err != nil {
			return "", err
		}
		e.Compiled = p
		e.Accepts = make([][]*Type, len(p.Placeholders))
		e.Plural = make([]bool, len(p.Placeholders))
		for i, ph := range p.Placeholders {
			e.Plural[i] = !ph.Single
			for _, name := range ph.Types {
				t, plural, have := r.types.Lookup(name)
				if !have {
					return "", &UnknownType{Name: name}
				}
				e.Accepts[i] = append(e.Accepts[i], t)
				e.Plural[i] = e.Plural[i] || plural
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.snap.Load()
	if _, have := old.Find(e.Handle); have {
		return "", fmt.Errorf("%w: %s %q from %q", ErrDuplicateHandle, reg.Kind, reg.Pattern, reg.Owner)
	}

	r.seq++
	e.seq = r.seq

	r.checkConflicts(old, e)

	entries := make([]*Entry, 0, old.Len()+1)
	entries = append(entries, old.entries...)
	entries = append(entries, e)
	r.snap.Store(newSnapshot(entries))

	r.logger.Debug("registered",
		zap.String("owner", reg.Owner),
		zap.String("kind", reg.Kind.String()),
		zap.String("pattern", reg.Pattern),
		zap.Int("priority", reg.Priority),
		zap.String("handle", string(e.Handle)))

	return e.Handle, nil
}

// checkConflicts logs a warning for each existing entry of the same
// kind and priority that can match the same text as the new one.
func (r *Registry) checkConflicts(s *Snapshot, e *Entry) {
	if e.Compiled == nil {
		return
	}
	for _, other := range s.Entries(e.Kind) {
		if other.Compiled == nil || other.Priority != e.Priority {
			continue
		}
		if !match.Overlaps(e.Compiled, other.Compiled, r.ConflictLimit) {
			continue
		}
		r.logger.Warn("patterns overlap",
			zap.String("pattern", e.Pattern),
			zap.String("owner", e.Owner),
			zap.String("other", other.Pattern),
			zap.String("otherOwner", other.Owner),
			zap.Int("priority", e.Priority))
	}
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(reg Registration) Handle {
	h, err := r.Register(reg)
	if err != nil {
		panic(err)
	}
	return h
}

// Unregister removes an entry.  Returns false if there was no such
// entry.
func (r *Registry) Unregister(h Handle) bool {
	return r.remove(func(e *Entry) bool {
		return e.Handle == h
	}) == 1
}

// UnregisterOwner removes all of an owner's entries and returns how
// many there were.
func (r *Registry) UnregisterOwner(owner string) int {
	return r.remove(func(e *Entry) bool {
		return e.Owner == owner
	})
}

func (r *Registry) remove(f func(*Entry) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.snap.Load()
	entries := make([]*Entry, 0, old.Len())
	for _, e := range old.entries {
		if !f(e) {
			entries = append(entries, e)
		}
	}
	n := old.Len() - len(entries)
	if 0 < n {
		r.snap.Store(newSnapshot(entries))
	}
	return n
}
