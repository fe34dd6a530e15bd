package cache

import (
	"sync"

	"github.com/facebookgo/stackerr"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"

	"github.com/skipor/tiercache/log"
	"github.com/skipor/tiercache/recycle"
)

const (
	DefaultTagCapacity = 4
	DefaultSlots       = 50
)

type Config struct {
	// Tags are labels of cache partitions. Order is first-fit insert order.
	Tags []string
	// TagCapacity is max number of first level entries bound to one tag.
	TagCapacity int
	// Slots is second level size.
	Slots  int
	Policy Policy
	// Metrics is registry for cache counters. New registry is used if nil.
	// Registry should not be shared between caches.
	Metrics metrics.Registry
}

// Cache is safe for concurrent use.
type Cache struct {
	// lock guards all tags, levels and entries state.
	lock     sync.RWMutex
	tags     *registry
	l1       *level1
	l2       *level2
	counters counters
	log      log.Logger
}

func New(l log.Logger, conf Config) (*Cache, error) {
	if l == nil {
		l = log.NewNopLogger()
	}
	if conf.TagCapacity == 0 {
		conf.TagCapacity = DefaultTagCapacity
	}
	if conf.Slots == 0 {
		conf.Slots = DefaultSlots
	}
	if conf.TagCapacity < 0 {
		return nil, stackerr.Newf("negative tag capacity %v", conf.TagCapacity)
	}
	if conf.Slots < 0 {
		return nil, stackerr.Newf("negative slots number %v", conf.Slots)
	}
	tags, err := newRegistry(conf.Tags, conf.TagCapacity)
	if err != nil {
		return nil, err
	}
	policy, err := newPolicy(conf.Policy, conf.Slots)
	if err != nil {
		return nil, err
	}
	if conf.Metrics == nil {
		conf.Metrics = metrics.NewRegistry()
	}
	c := &Cache{
		tags:     tags,
		l1:       newLevel1(),
		l2:       newLevel2(conf.Slots, policy),
		counters: newCounters(conf.Metrics),
		log:      l,
	}
	c.registerGauges(conf.Metrics)
	l.Debugf("Cache created: %v tags, tag capacity %v, %v slots, %s policy.",
		len(conf.Tags), conf.TagCapacity, conf.Slots, policyName(conf.Policy))
	return c, nil
}

// Insert binds e to first tag in declaration order which has spare capacity.
func (c *Cache) Insert(e *Entry) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	defer c.checkInvariants()
	if err := c.checkInsertable(e); err != nil {
		return err
	}
	t, ok := c.tags.firstFit()
	if !ok {
		c.counters.exhausted.Inc(1)
		c.log.Debug("No tag has spare capacity.")
		return errors.Wrapf(ErrExhausted, "all %v tags have %v entries", len(c.tags.tags), c.tags.capacity)
	}
	c.insert(e, t)
	return nil
}

// InsertTag binds e to tag with given label.
// Fails with ErrNoTag if there is no such tag, and with ErrExhausted if tag is full.
func (c *Cache) InsertTag(e *Entry, label string) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	defer c.checkInvariants()
	if err := c.checkInsertable(e); err != nil {
		return err
	}
	t, ok := c.tags.lookup(label)
	if !ok {
		c.log.Debugf("Insert to absent tag %q.", label)
		return errors.Wrapf(ErrNoTag, "tag %q", label)
	}
	if !c.tags.admits(t) {
		c.counters.exhausted.Inc(1)
		return errors.Wrapf(ErrExhausted, "tag %q has %v entries", label, t.usage)
	}
	c.insert(e, t)
	return nil
}

func (c *Cache) checkInsertable(e *Entry) error {
	if e.owner != nil || e.withdrawn {
		c.log.Warnf("Insert of already bound entry %v.", e.id)
		return errors.Wrapf(ErrAlreadyBound, "entry %v", e.id)
	}
	return nil
}

func (c *Cache) insert(e *Entry, t *tag) {
	c.l1.insert(e, t)
	c.counters.insert.Inc(1)
	c.log.Debugf("Entry %v inserted.", e.id)
}

// Reference looks up id in second level, then in first level.
// First level hit promotes entry to second level.
func (c *Cache) Reference(id ID) (Level, error) {
	level, _, err := c.reference(id, false)
	return level, err
}

// Read is Reference that also returns reader of payload from level that served hit.
func (c *Cache) Read(id ID) (View, error) {
	level, data, err := c.reference(id, true)
	if err != nil {
		return View{}, err
	}
	return View{ID: id, Level: level, Reader: data}, nil
}

func (c *Cache) reference(id ID, read bool) (level Level, reader *recycle.DataReader, err error) {
	if c.l2.policy.concurrentTouch() {
		var hit bool
		c.lock.RLock()
		if i, ok := c.l2.probe(id); ok {
			hit = true
			c.l2.touch(i)
			if read {
				reader = c.l2.slots[i].data.NewReader()
			}
		}
		c.lock.RUnlock()
		if hit {
			c.counters.l2Hit.Inc(1)
			c.log.Debugf("%v was looked up in level 2.", id)
			return Level2, reader, nil
		}
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	defer c.checkInvariants()
	// Second level can be changed since read lock release.
	if i, ok := c.l2.probe(id); ok {
		c.l2.touch(i)
		if read {
			reader = c.l2.slots[i].data.NewReader()
		}
		c.counters.l2Hit.Inc(1)
		c.log.Debugf("%v was looked up in level 2.", id)
		return Level2, reader, nil
	}
	e, ok := c.l1.find(id)
	if !ok {
		c.counters.miss.Inc(1)
		c.log.Debugf("%v not found.", id)
		return Miss, nil, errors.Wrapf(ErrNotFound, "entry %v", id)
	}
	c.counters.l1Hit.Inc(1)
	c.log.Debugf("%v was looked up in level 1.", id)
	if read {
		reader = e.data.NewReader()
	}
	if evicted, ok := c.l2.promote(e); ok {
		c.counters.evict.Inc(1)
		c.log.Debugf("%v evicted from level 2.", evicted)
	}
	return Level1, reader, nil
}

// Withdraw removes e from both levels and recycles its payload.
func (c *Cache) Withdraw(e *Entry) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	defer c.checkInvariants()
	if e.owner != c.l1 {
		c.log.Warnf("Withdraw of not bound entry %v.", e.id)
		return errors.Wrapf(ErrNotBound, "entry %v is %v", e.id, c.state(e))
	}
	c.withdraw(e)
	return nil
}

// WithdrawAll withdraws all first level entries. Returns number of withdrawn.
func (c *Cache) WithdrawAll() (n int) {
	c.lock.Lock()
	defer c.lock.Unlock()
	defer c.checkInvariants()
	for e := c.l1.head(); !c.l1.end(e); {
		next := e.next
		c.withdraw(e)
		e = next
		n++
	}
	return
}

func (c *Cache) withdraw(e *Entry) {
	id := e.id
	t, ok := c.tags.lookup(id.Tag)
	if !ok {
		c.log.Panicf("Entry %v bound to absent tag.", id)
	}
	t.decUsage()
	if c.l2.clear(id) {
		c.log.Debugf("%v cleared from level 2.", id)
	}
	c.l1.remove(e)
	e.withdrawn = true
	c.counters.withdraw.Inc(1)
	c.log.Debugf("Entry %v withdrawn.", id)
}

// State returns e lifecycle state in c.
func (c *Cache) State(e *Entry) State {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.state(e)
}

func (c *Cache) state(e *Entry) State {
	switch {
	case e.withdrawn:
		return Withdrawn
	case e.owner != c.l1:
		return Unbound
	}
	if _, ok := c.l2.probe(e.id); ok {
		return Promoted
	}
	return FirstLevel
}

// AdmissionCount recounts entries bound to tag by first level scan.
func (c *Cache) AdmissionCount(label string) (int, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	if _, ok := c.tags.lookup(label); !ok {
		return 0, errors.Wrapf(ErrNoTag, "tag %q", label)
	}
	return c.l1.count(label), nil
}

// IDs returns first level entry IDs, most lately inserted first.
func (c *Cache) IDs() []ID {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.l1.ids()
}

// PromotedIDs returns IDs of occupied second level slots in slot order.
func (c *Cache) PromotedIDs() []ID {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.l2.ids()
}

// Tags returns tags state in declaration order.
func (c *Cache) Tags() []TagInfo {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.tags.infos()
}

// Len returns number of first level entries.
func (c *Cache) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.l1.len()
}

func policyName(p Policy) Policy {
	if p == "" {
		return FIFO
	}
	return p
}
