package tiercache

import (
	"fmt"

	"github.com/facebookgo/stackerr"
	"github.com/pkg/errors"

	"github.com/skipor/tiercache/cache"
	"github.com/skipor/tiercache/log"
	"github.com/skipor/tiercache/recycle"
)

// Lifecycle is cache installed by Install. It should be torn down by Remove.
type Lifecycle struct {
	Cache *cache.Cache
	Log   log.Logger
	// Report is what Install has done.
	Report Report
	pool   *recycle.Pool
}

type Report struct {
	Inserted   int
	Rejected   int
	Referenced int
	// Levels counts references by serving level.
	Levels map[cache.Level]int
}

// Install builds cache, fills it with conf.Entries entries and references
// every conf.ReferenceStride-th entry and then all entries.
func Install(l log.Logger, conf Config) (*Lifecycle, error) {
	conf.setDefaults()
	if err := conf.validate(); err != nil {
		return nil, err
	}
	l.Info("Cache is initializing.")
	cacheConf := conf.Cache
	cacheConf.Tags = TagLabels(conf.Tags)
	c, err := cache.New(l.WithFields(log.Fields{"component": "cache"}), cacheConf)
	if err != nil {
		return nil, err
	}
	l.Infof("All %v tags are added.", conf.Tags)

	lc := &Lifecycle{
		Cache:  c,
		Log:    l,
		pool:   conf.Pool,
		Report: Report{Levels: map[cache.Level]int{}},
	}
	if lc.pool == nil {
		lc.pool = recycle.NewPool()
	}
	for i := 0; i < conf.Entries; i++ {
		lc.add(Payload(i, conf.PayloadSize))
	}
	l.Infof("%v entries are added, %v rejected.", lc.Report.Inserted, lc.Report.Rejected)

	ids := c.IDs()
	for i, id := range ids {
		if (i+1)%conf.ReferenceStride == 0 {
			lc.refer(id)
		}
	}
	l.Info("Some entries are referred.")
	for _, id := range ids {
		lc.refer(id)
	}
	l.Info("Cache is initialized.")
	return lc, nil
}

func (lc *Lifecycle) add(payload []byte) {
	e := cache.NewEntry(lc.pool.NewData(payload))
	err := lc.Cache.Insert(e)
	if err == nil {
		lc.Report.Inserted++
		return
	}
	lc.Report.Rejected++
	// Entry was not bound, so payload is still ours.
	e.Discard()
	if errors.Cause(err) != cache.ErrExhausted {
		lc.Log.Errorf("Add entry fail: %v", err)
		return
	}
	lc.Log.Debugf("Add entry fail: %v", err)
}

func (lc *Lifecycle) refer(id cache.ID) {
	level, err := lc.Cache.Reference(id)
	if err != nil {
		lc.Log.Warnf("Refer %v fail: %v", id, err)
	}
	lc.Report.Referenced++
	lc.Report.Levels[level]++
}

// Remove withdraws all remaining entries. Returns number of withdrawn.
func (lc *Lifecycle) Remove() int {
	lc.Log.Info("Cache is exiting.")
	n := lc.Cache.WithdrawAll()
	lc.Log.Infof("Cache is exited: %v entries withdrawn.", n)
	return n
}

// TagLabels returns n tag labels in declaration order.
func TagLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("tag-%03d", i+1)
	}
	return labels
}

// Payload returns payload of i-th installed entry, padded with spaces to size.
func Payload(i int, size int) []byte {
	p := []byte(fmt.Sprintf("(CACHE %d)", i))
	for len(p) < size {
		p = append(p, ' ')
	}
	return p
}

func (c *Config) setDefaults() {
	def := DefaultConfig()
	if c.Tags == 0 {
		c.Tags = def.Tags
	}
	if c.Entries == 0 {
		c.Entries = def.Entries
	}
	if c.ReferenceStride == 0 {
		c.ReferenceStride = def.ReferenceStride
	}
}

func (c *Config) validate() error {
	switch {
	case c.Tags < 0:
		return stackerr.Newf("negative tags number %v", c.Tags)
	case c.Entries < 0:
		return stackerr.Newf("negative entries number %v", c.Entries)
	case c.ReferenceStride < 0:
		return stackerr.Newf("negative reference stride %v", c.ReferenceStride)
	case c.PayloadSize < 0:
		return stackerr.Newf("negative payload size %v", c.PayloadSize)
	case c.PayloadSize > MaxPayloadSize:
		return stackerr.Newf("too large payload size %v", c.PayloadSize)
	}
	return nil
}
