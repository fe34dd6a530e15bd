package cache

import (
	"sync/atomic"

	"github.com/facebookgo/stackerr"
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Policy names second level eviction policy.
type Policy string

const (
	// FIFO evicts slot that was filled earliest.
	FIFO Policy = "fifo"
	// LRU evicts least recently promoted or hit slot.
	// Second level hit requires write lock with this policy.
	LRU Policy = "lru"
	// Clock is second chance approximation of LRU. Hit sets slot reference bit,
	// hand clears bits and evicts first slot without one.
	Clock Policy = "clock"
)

var Policies = []Policy{FIFO, LRU, Clock}

// evictionPolicy tracks occupied slots and chooses victim when all are occupied.
// filled, freed and victim are called with write lock acquired.
type evictionPolicy interface {
	filled(slot int)
	freed(slot int)
	// victim returns occupied slot to evict. Called only when all slots are occupied.
	victim() int
	// touch marks slot hit. Called with read lock acquired if concurrentTouch
	// returns true, otherwise with write lock acquired.
	touch(slot int)
	concurrentTouch() bool
}

func newPolicy(p Policy, slots int) (evictionPolicy, error) {
	switch p {
	case FIFO, "":
		return newFIFO(slots), nil
	case LRU:
		lru, err := newLRUPolicy(slots)
		if err != nil {
			return nil, err
		}
		return lru, nil
	case Clock:
		return newClock(slots), nil
	}
	return nil, stackerr.Newf("unknown eviction policy %q", p)
}

// fifo keeps fill order number for every slot.
type fifo struct {
	seq  []uint64 // Zero for free slot.
	next uint64
}

func newFIFO(slots int) *fifo {
	return &fifo{seq: make([]uint64, slots), next: 1}
}

func (f *fifo) filled(slot int) {
	f.seq[slot] = f.next
	f.next++
}

func (f *fifo) freed(slot int)        { f.seq[slot] = 0 }
func (f *fifo) touch(int)             {}
func (f *fifo) concurrentTouch() bool { return true }

func (f *fifo) victim() int {
	v := -1
	for i, s := range f.seq {
		if s != 0 && (v == -1 || s < f.seq[v]) {
			v = i
		}
	}
	if v == -1 {
		panic("victim requested, but no slot is filled")
	}
	return v
}

type lruPolicy struct {
	recency *simplelru.LRU[int, struct{}]
}

func newLRUPolicy(slots int) (*lruPolicy, error) {
	recency, err := simplelru.NewLRU[int, struct{}](slots, nil)
	if err != nil {
		return nil, stackerr.Wrap(err)
	}
	return &lruPolicy{recency}, nil
}

func (p *lruPolicy) filled(slot int)       { p.recency.Add(slot, struct{}{}) }
func (p *lruPolicy) freed(slot int)        { p.recency.Remove(slot) }
func (p *lruPolicy) touch(slot int)        { p.recency.Get(slot) }
func (p *lruPolicy) concurrentTouch() bool { return false }

func (p *lruPolicy) victim() int {
	slot, _, ok := p.recency.GetOldest()
	if !ok {
		panic("victim requested, but no slot is filled")
	}
	return slot
}

const (
	unreferenced int32 = iota
	referenced
)

type clock struct {
	// Reference bits can have concurrent and atomic access with read lock acquired,
	// or exclusive access with write lock acquired.
	refs []int32
	hand int
}

func newClock(slots int) *clock {
	return &clock{refs: make([]int32, slots)}
}

// Promoted slot is unreferenced until first hit.
func (c *clock) filled(slot int)       { c.refs[slot] = unreferenced }
func (c *clock) freed(slot int)        { c.refs[slot] = unreferenced }
func (c *clock) touch(slot int)        { atomic.StoreInt32(&c.refs[slot], referenced) }
func (c *clock) concurrentTouch() bool { return true }

func (c *clock) victim() int {
	for {
		slot := c.hand
		c.hand = (c.hand + 1) % len(c.refs)
		if c.refs[slot] == referenced {
			c.refs[slot] = unreferenced
			continue
		}
		return slot
	}
}
