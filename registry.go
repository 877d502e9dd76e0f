package oclstat

import (
	"fmt"
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Retention decides what happens to a record whose count reaches zero.
//
// Evicting keeps the registry proportional to the number of live objects.
// Tombstones keep released objects visible to later reports and let a
// retain or release after the final release be told apart from a handle
// that was never seen, at the cost of growing with every object a
// long-running process creates. TombstoneLimit bounds that growth.
type Retention int

const (
	// RetainEvict removes a record when its count reaches zero.
	RetainEvict Retention = iota
	// RetainTombstone keeps a zero-count record for auditing.
	RetainTombstone
)

func (r Retention) String() string {
	if r == RetainTombstone {
		return "tombstone"
	}
	return "evict"
}

// UnmarshalText parses "evict" or "tombstone".
func (r *Retention) UnmarshalText(text []byte) error {
	switch string(text) {
	case "evict", "":
		*r = RetainEvict
	case "tombstone":
		*r = RetainTombstone
	default:
		return fmt.Errorf("invalid retention %q", text)
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (r Retention) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Retention Retention
	// TombstoneLimit caps tombstones per category, dropping the least
	// recently released first. Zero means unbounded.
	TombstoneLimit int
	// RecentViolations is how many violations are kept for reports.
	RecentViolations int
	// Now defaults to time.Now.
	Now func() time.Time
}

// CategoryStats summarizes one category.
type CategoryStats struct {
	Category   Category
	Created    uint64
	Alive      int
	Tombstones int
	// Bytes is the size of alive, non-alias records. Image sizes are
	// estimates, so this is a lower bound whenever EstimatedBytes > 0.
	Bytes          uint64
	EstimatedBytes uint64
	Violations     uint64
}

// Registry holds one table of records per category. All methods are safe
// for concurrent use; they share a single lock.
type Registry struct {
	mu        sync.Mutex
	tables    [numCategories]table
	retention Retention
	recent    *queue.Queue
	recentCap int
	now       func() time.Time
}

type table struct {
	live       map[Handle]*Record
	dead       tombstones
	created    uint64
	violations uint64
}

// NewRegistry creates an empty registry.
func NewRegistry(opts RegistryOptions) *Registry {
	r := &Registry{
		retention: opts.Retention,
		recent:    queue.New(),
		recentCap: opts.RecentViolations,
		now:       opts.Now,
	}
	if r.now == nil {
		r.now = time.Now
	}
	for i := range r.tables {
		r.tables[i].live = make(map[Handle]*Record)
		if r.retention == RetainTombstone {
			r.tables[i].dead = newTombstones(opts.TombstoneLimit)
		}
	}
	return r
}

// Retention returns the configured retention policy.
func (r *Registry) Retention() Retention {
	return r.retention
}

func (r *Registry) table(c Category) *table {
	if c < 0 || c >= numCategories {
		panic(fmt.Sprintf("oclstat: invalid category %d", int(c)))
	}
	return &r.tables[c]
}

// Insert records a newly created object with a count of one.
//
// A handle that is already live indicates the implementation handed out
// the same object twice; the record is replaced and ErrDuplicateHandle is
// returned. It can also be an address freed by a real release on another
// thread that has not reached the registry yet, in which case that
// pending Release drops the new record. A tombstoned handle is an address
// the implementation reused and is silently revived.
func (r *Registry) Insert(c Category, h Handle, size uint64, flags RecordFlags) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.table(c)
	if !c.SizeBearing() {
		size, flags = 0, 0
	}
	var err error
	if _, ok := t.live[h]; ok {
		err = ErrDuplicateHandle
	}
	if t.dead != nil {
		t.dead.take(h)
	}
	t.live[h] = &Record{Handle: h, Refs: 1, Size: size, Flags: flags, Created: r.now()}
	t.created++
	return err
}

// Retain increments the count of a live record.
func (r *Registry) Retain(c Category, h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.table(c)
	rec, ok := t.live[h]
	if !ok {
		return t.missing(h)
	}
	rec.Refs++
	return nil
}

// Release decrements the count of a live record and reports whether it
// reached zero. The record is then evicted or tombstoned.
func (r *Registry) Release(c Category, h Handle) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.table(c)
	rec, ok := t.live[h]
	if !ok {
		return false, t.missing(h)
	}
	rec.Refs--
	if rec.Refs > 0 {
		return false, nil
	}
	delete(t.live, h)
	if t.dead != nil {
		t.dead.add(*rec)
	}
	return true, nil
}

func (t *table) missing(h Handle) error {
	if t.dead != nil && t.dead.has(h) {
		return ErrReleasedHandle
	}
	return ErrUnknownHandle
}

// Lookup returns a copy of the record for h, live or tombstoned.
func (r *Registry) Lookup(c Category, h Handle) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.table(c)
	if rec, ok := t.live[h]; ok {
		return *rec, true
	}
	if t.dead != nil {
		return t.dead.get(h)
	}
	return Record{}, false
}

// Snapshot copies every record of a category, tombstones included.
func (r *Registry) Snapshot(c Category) []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.table(c)
	out := make([]Record, 0, len(t.live))
	for _, rec := range t.live {
		out = append(out, *rec)
	}
	if t.dead != nil {
		out = append(out, t.dead.values()...)
	}
	return out
}

// Stats summarizes every category in report order.
func (r *Registry) Stats() []CategoryStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats()
}

// Summary returns Stats and RecentViolations taken under one lock.
func (r *Registry) Summary() ([]CategoryStats, []Violation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats(), r.recentViolations()
}

func (r *Registry) stats() []CategoryStats {
	out := make([]CategoryStats, 0, numCategories)
	for _, c := range Categories {
		t := &r.tables[c]
		st := CategoryStats{
			Category:   c,
			Created:    t.created,
			Violations: t.violations,
		}
		if t.dead != nil {
			st.Tombstones = t.dead.len()
		}
		for _, rec := range t.live {
			if !rec.Alive() {
				continue
			}
			st.Alive++
			if rec.Flags&FlagAlias != 0 {
				continue
			}
			st.Bytes += rec.Size
			if rec.Flags&FlagImage != 0 {
				st.EstimatedBytes += rec.Size
			}
		}
		out = append(out, st)
	}
	return out
}

// NoteViolation counts a violation and keeps it for reports.
func (r *Registry) NoteViolation(v Violation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v.Category >= 0 && v.Category < numCategories {
		r.tables[v.Category].violations++
	}
	if r.recentCap <= 0 {
		return
	}
	for r.recent.Length() >= r.recentCap {
		r.recent.Remove()
	}
	r.recent.Add(v)
}

// RecentViolations returns the kept violations, oldest first.
func (r *Registry) RecentViolations() []Violation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recentViolations()
}

func (r *Registry) recentViolations() []Violation {
	out := make([]Violation, r.recent.Length())
	for i := range out {
		out[i] = r.recent.Get(i).(Violation)
	}
	return out
}

// tombstones stores zero-count records.
type tombstones interface {
	add(rec Record)
	get(h Handle) (Record, bool)
	has(h Handle) bool
	take(h Handle)
	values() []Record
	len() int
}

func newTombstones(limit int) tombstones {
	if limit <= 0 {
		return mapTombstones{}
	}
	l, err := simplelru.NewLRU[Handle, Record](limit, nil)
	if err != nil {
		return mapTombstones{}
	}
	return lruTombstones{l}
}

type mapTombstones map[Handle]Record

func (m mapTombstones) add(rec Record) { m[rec.Handle] = rec }
func (m mapTombstones) has(h Handle) bool {
	_, ok := m[h]
	return ok
}
func (m mapTombstones) get(h Handle) (Record, bool) {
	rec, ok := m[h]
	return rec, ok
}
func (m mapTombstones) take(h Handle) { delete(m, h) }
func (m mapTombstones) len() int      { return len(m) }
func (m mapTombstones) values() []Record {
	out := make([]Record, 0, len(m))
	for _, rec := range m {
		out = append(out, rec)
	}
	return out
}

type lruTombstones struct {
	l *simplelru.LRU[Handle, Record]
}

func (t lruTombstones) add(rec Record)              { t.l.Add(rec.Handle, rec) }
func (t lruTombstones) has(h Handle) bool           { return t.l.Contains(h) }
func (t lruTombstones) get(h Handle) (Record, bool) { return t.l.Peek(h) }
func (t lruTombstones) take(h Handle)               { t.l.Remove(h) }
func (t lruTombstones) len() int                    { return t.l.Len() }
func (t lruTombstones) values() []Record            { return t.l.Values() }
