package tiercache

import (
	"io/ioutil"
	"runtime"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/rcrowley/go-metrics"

	"github.com/skipor/tiercache/cache"
	"github.com/skipor/tiercache/recycle"
)

var _ = Describe("Lifecycle", func() {
	var (
		conf Config
		lc   *Lifecycle
		err  error
	)
	BeforeEach(func() {
		conf = DefaultConfig()
	})
	JustBeforeEach(func() {
		lc, err = Install(testLogger(), conf)
	})

	Context("defaults", func() {
		It("every entry admitted", func() {
			Expect(err).To(BeNil())
			r := lc.Report
			Expect(r.Inserted).To(Equal(400))
			Expect(r.Rejected).To(BeZero())
			for _, t := range lc.Cache.Tags() {
				Expect(t.Usage).To(Equal(cache.DefaultTagCapacity))
			}
			Expect(lc.Remove()).To(Equal(400))
			Expect(lc.Cache.Len()).To(BeZero())
		})

		It("referenced sparse then all", func() {
			Expect(err).To(BeNil())
			r := lc.Report
			Expect(r.Referenced).To(Equal(440))
			Expect(r.Levels[cache.Miss]).To(BeZero())
			// Only first sparse entry survives in level 2 until its second reference.
			Expect(r.Levels[cache.Level2]).To(Equal(1))
			Expect(r.Levels[cache.Level1]).To(Equal(439))

			s := lc.Cache.Stats()
			Expect(s.Promoted).To(Equal(cache.DefaultSlots))
			Expect(s.Evictions).To(BeEquivalentTo(439 - cache.DefaultSlots))
			lc.Remove()
			Expect(lc.Cache.Stats().Promoted).To(BeZero())
		})

		It("tags are declared in order", func() {
			Expect(err).To(BeNil())
			tags := lc.Cache.Tags()
			Expect(tags).To(HaveLen(DefaultTags))
			Expect(tags[0].Label).To(Equal("tag-001"))
			Expect(tags[DefaultTags-1].Label).To(Equal("tag-100"))
			lc.Remove()
		})
	})

	Context("more entries than room", func() {
		BeforeEach(func() {
			conf.Tags = 2
			conf.Entries = 11
		})
		It("rejects overflow", func() {
			Expect(err).To(BeNil())
			Expect(lc.Report.Inserted).To(Equal(8))
			Expect(lc.Report.Rejected).To(Equal(3))
			Expect(lc.Cache.Stats().Exhausted).To(BeEquivalentTo(3))
			Expect(lc.Remove()).To(Equal(8))
		})
	})

	Context("payload", func() {
		BeforeEach(func() {
			conf.Tags = 1
			conf.Entries = 1
			conf.PayloadSize = 32
		})
		It("padded", func() {
			Expect(err).To(BeNil())
			id := lc.Cache.IDs()[0]
			v, err := lc.Cache.Read(id)
			Expect(err).To(BeNil())
			data, _ := ioutil.ReadAll(v.Reader)
			v.Reader.Close()
			Expect(data).To(HaveLen(32))
			Expect(string(data)).To(HavePrefix("(CACHE 0) "))
			lc.Remove()
		})
	})

	Context("no leaks", func() {
		var leak chan *recycle.Data
		BeforeEach(func() {
			leak = make(chan *recycle.Data)
			conf.Pool = recycle.NewPool()
			conf.Pool.SetLeakCallback(recycle.NotifyOnLeak(leak))
			conf.Tags = 3
			conf.Entries = 20
		})
		It("after remove", func() {
			Expect(err).To(BeNil())
			lc.Remove()
			lc = nil
			runtime.GC()
			Consistently(leak).ShouldNot(Receive())
		})
	})

	Context("metrics", func() {
		var r metrics.Registry
		BeforeEach(func() {
			r = metrics.NewRegistry()
			conf.Cache.Metrics = r
		})
		It("counted", func() {
			Expect(err).To(BeNil())
			Expect(r.Get(cache.MetricInsert).(metrics.Counter).Count()).To(BeEquivalentTo(400))
			Expect(r.Get(cache.MetricEntries).(metrics.Gauge).Value()).To(BeEquivalentTo(400))
			lc.Remove()
			Expect(r.Get(cache.MetricWithdraw).(metrics.Counter).Count()).To(BeEquivalentTo(400))
		})
	})

	Context("invalid config", func() {
		invalid := map[string]func(c *Config){
			"negative entries": func(c *Config) { c.Entries = -1 },
			"negative stride":  func(c *Config) { c.ReferenceStride = -1 },
			"large payload":    func(c *Config) { c.PayloadSize = MaxPayloadSize + 1 },
			"unknown policy":   func(c *Config) { c.Cache.Policy = "mru" },
			"negative slots":   func(c *Config) { c.Cache.Slots = -1 },
		}
		for name, modify := range invalid {
			modify := modify
			Context(name, func() {
				BeforeEach(func() { modify(&conf) })
				It("fails", func() {
					Expect(err).To(HaveOccurred())
					Expect(lc).To(BeNil())
				})
			})
		}
	})

	It("payload", func() {
		Expect(string(Payload(7, 0))).To(Equal("(CACHE 7)"))
		Expect(Payload(7, 12)).To(HaveLen(12))
		Expect(TagLabels(2)).To(Equal([]string{"tag-001", "tag-002"}))
		lc.Remove()
	})
})
