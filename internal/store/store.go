package store

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Reader is the read-only view of an ordinal store. GetAt observes the
// latest write with ordinal <= the given ordinal, never a later one.
type Reader interface {
	GetAt(ordinal uint64, key string) ([]byte, bool)
	GetLast(key string) ([]byte, bool)
}

// Writer is the mutating side of an ordinal store. Exactly one stage owns
// the writer of any store within a pass.
type Writer interface {
	Set(ordinal uint64, key string, value []byte)
	Append(ordinal uint64, key string, value []byte)
	Add(ordinal uint64, key string, delta decimal.Decimal)
}

type entry struct {
	ordinal uint64
	value   []byte
}

// Store is an ordinal-versioned key-value store. Values are versioned by
// the log ordinal of the write, not by arrival time; within a key, the
// value at ordinal O is the one written with the highest ordinal <= O.
type Store struct {
	name string
	data map[string][]entry
}

func New(name string) *Store {
	return &Store{name: name, data: make(map[string][]entry)}
}

// Name returns the store identifier used in snapshots and logs.
func (s *Store) Name() string {
	return s.name
}

// Set records value as authoritative for key at all ordinals >= ordinal,
// until superseded by a later write.
func (s *Store) Set(ordinal uint64, key string, value []byte) {
	entries := s.data[key]
	idx := sort.Search(len(entries), func(i int) bool {
		return entries[i].ordinal >= ordinal
	})
	if idx < len(entries) && entries[idx].ordinal == ordinal {
		entries[idx].value = value
		s.data[key] = entries
		return
	}
	entries = append(entries, entry{})
	copy(entries[idx+1:], entries[idx:])
	entries[idx] = entry{ordinal: ordinal, value: value}
	s.data[key] = entries
}

// GetAt returns the value for key as of the given ordinal.
func (s *Store) GetAt(ordinal uint64, key string) ([]byte, bool) {
	entries := s.data[key]
	idx := sort.Search(len(entries), func(i int) bool {
		return entries[i].ordinal > ordinal
	})
	if idx == 0 {
		return nil, false
	}
	return entries[idx-1].value, true
}

// GetLast returns the value with the highest ordinal for key.
func (s *Store) GetLast(key string) ([]byte, bool) {
	entries := s.data[key]
	if len(entries) == 0 {
		return nil, false
	}
	return entries[len(entries)-1].value, true
}

// Append concatenates value onto the existing sequence for key.
func (s *Store) Append(ordinal uint64, key string, value []byte) {
	prev, _ := s.GetLast(key)
	next := make([]byte, 0, len(prev)+len(value))
	next = append(next, prev...)
	next = append(next, value...)
	s.Set(ordinal, key, next)
}

// Add accumulates a signed decimal delta into the running total for key,
// initializing at zero when absent. The total never moves backwards: a
// write below the latest ordinal lands on it instead of behind it.
func (s *Store) Add(ordinal uint64, key string, delta decimal.Decimal) {
	total := decimal.Zero
	if entries := s.data[key]; len(entries) > 0 {
		last := entries[len(entries)-1]
		if parsed, err := decimal.NewFromString(string(last.value)); err == nil {
			total = parsed
		}
		if last.ordinal > ordinal {
			ordinal = last.ordinal
		}
	}
	total = total.Add(delta)
	s.Set(ordinal, key, []byte(total.String()))
}

// GetDecimalAt reads key as of ordinal and parses it as a decimal.
func GetDecimalAt(r Reader, ordinal uint64, key string) (decimal.Decimal, bool, error) {
	raw, ok := r.GetAt(ordinal, key)
	if !ok {
		return decimal.Zero, false, nil
	}
	parsed, err := decimal.NewFromString(string(raw))
	if err != nil {
		return decimal.Zero, true, fmt.Errorf("parse decimal at %q: %w", key, err)
	}
	return parsed, true, nil
}

// Baseline returns an independent copy of the store with every key
// collapsed to its latest value at ordinal zero. Ordinals are scoped to
// a block, so the next pass must observe earlier commits at any ordinal,
// however low its own ordinals restart. Writes to the copy never affect
// the original, so a failed pass can be discarded wholesale.
func (s *Store) Baseline() *Store {
	data := make(map[string][]entry, len(s.data))
	for key, entries := range s.data {
		last := entries[len(entries)-1]
		data[key] = []entry{{ordinal: 0, value: last.value}}
	}
	return &Store{name: s.name, data: data}
}

// Keys returns all keys in lexical order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.data))
	for key := range s.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Entry is one exported key with its latest value and write ordinal.
type Entry struct {
	Key     string
	Ordinal uint64
	Value   []byte
}

// Latest exports every key's latest value in deterministic key order.
func (s *Store) Latest() []Entry {
	keys := s.Keys()
	out := make([]Entry, 0, len(keys))
	for _, key := range keys {
		entries := s.data[key]
		last := entries[len(entries)-1]
		out = append(out, Entry{Key: key, Ordinal: last.ordinal, Value: last.value})
	}
	return out
}
