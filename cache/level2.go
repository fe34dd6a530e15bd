package cache

import (
	"github.com/skipor/tiercache/recycle"
)

// slot is second level promotion record. Free slot has unbound ID.
type slot struct {
	id   ID
	data *recycle.Data
}

func (s *slot) free() bool { return !s.id.bound() }

// level2 is fixed size array of slots with payload copies of first level entries.
// Invariants:
// * number of occupied slots never exceeds len(slots).
// * every occupied slot ID is bound in first level (withdraw clears it).
// * every occupied slot owns its data copy. Free slots have no data.
type level2 struct {
	slots  []slot
	policy evictionPolicy
}

func newLevel2(slots int, p evictionPolicy) *level2 {
	l := &level2{
		slots:  make([]slot, slots),
		policy: p,
	}
	for i := range l.slots {
		l.slots[i].id = ID{Index: unbound}
	}
	return l
}

// probe returns first occupied slot with id.
func (l *level2) probe(id ID) (int, bool) {
	if !id.bound() {
		return -1, false
	}
	for i := range l.slots {
		if l.slots[i].id == id {
			return i, true
		}
	}
	return -1, false
}

// occupied recomputes number of occupied slots by full scan.
func (l *level2) occupied() (n int) {
	for i := range l.slots {
		if !l.slots[i].free() {
			n++
		}
	}
	return
}

func (l *level2) full() bool { return l.occupied() >= len(l.slots) }

// promote copies e into free slot. If there is no one, victim chosen by
// policy is evicted first.
// Requires write lock be acquired, and e not be promoted already.
func (l *level2) promote(e *Entry) (evicted ID, wasEvicted bool) {
	if l.full() {
		v := l.policy.victim()
		evicted, wasEvicted = l.slots[v].id, true
		l.free(v)
	}
	i := l.firstFree()
	l.slots[i] = slot{
		id:   e.id,
		data: e.data.Copy(),
	}
	l.policy.filled(i)
	return
}

// clear frees first slot with id, if any.
func (l *level2) clear(id ID) bool {
	i, ok := l.probe(id)
	if ok {
		l.free(i)
	}
	return ok
}

// clearAll frees all occupied slots.
func (l *level2) clearAll() {
	for i := range l.slots {
		if !l.slots[i].free() {
			l.free(i)
		}
	}
}

func (l *level2) touch(i int) { l.policy.touch(i) }

func (l *level2) free(i int) {
	s := &l.slots[i]
	s.data.Recycle()
	s.data = nil
	s.id = ID{Index: unbound}
	l.policy.freed(i)
}

func (l *level2) firstFree() int {
	for i := range l.slots {
		if l.slots[i].free() {
			return i
		}
	}
	panic("no free slot after eviction")
}

func (l *level2) ids() (ids []ID) {
	for i := range l.slots {
		if !l.slots[i].free() {
			ids = append(ids, l.slots[i].id)
		}
	}
	return
}
