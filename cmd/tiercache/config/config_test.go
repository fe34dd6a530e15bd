package config

import (
	"io/ioutil"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	g "github.com/onsi/gomega"

	"github.com/skipor/tiercache"
	"github.com/skipor/tiercache/cache"
	"github.com/skipor/tiercache/log"
)

var _ = Describe("Config", func() {
	It("default parses to install defaults", func() {
		parsed, err := Parse(*Default())
		g.Expect(err).To(g.BeNil())
		g.Expect(parsed.LogLevel).To(g.Equal(log.InfoLevel))
		g.Expect(parsed.LogDestination).To(g.BeIdenticalTo(os.Stderr))
		def := tiercache.DefaultConfig()
		def.PayloadSize = 64
		g.Expect(parsed.Install).To(g.Equal(def))
	})

	It("merge overrides only non zero values", func() {
		def := Default()
		Merge(def, &Config{Slots: 7, Policy: "lru"})
		g.Expect(def.Slots).To(g.Equal(7))
		g.Expect(def.Policy).To(g.Equal("lru"))
		g.Expect(def.Tags).To(g.Equal(tiercache.DefaultTags))
		g.Expect(def.LogLevel).To(g.Equal("info"))
	})

	It("unmarshal allows comments and trailing commas", func() {
		conf := Default()
		err := Unmarshal([]byte(`{
			// Small cache.
			"tags": 3,
			"policy": "clock",
		}`), conf)
		g.Expect(err).To(g.BeNil())
		g.Expect(conf.Tags).To(g.Equal(3))
		g.Expect(conf.Policy).To(g.Equal("clock"))
		g.Expect(conf.Slots).To(g.Equal(cache.DefaultSlots))
	})

	It("unmarshal invalid", func() {
		g.Expect(Unmarshal([]byte(`{"tags": "many"}`), Default())).NotTo(g.Succeed())
		g.Expect(Unmarshal([]byte(`{`), Default())).NotTo(g.Succeed())
	})

	It("marshal then read file", func() {
		dir, err := ioutil.TempDir("", "tiercache")
		g.Expect(err).To(g.BeNil())
		defer os.RemoveAll(dir)
		name := filepath.Join(dir, "config.json")
		conf := Default()
		conf.Entries = 12
		g.Expect(ioutil.WriteFile(name, Marshal(conf), 0600)).To(g.Succeed())
		read := &Config{}
		g.Expect(ReadFile(name, read)).To(g.Succeed())
		g.Expect(read).To(g.Equal(conf))
	})

	It("policy is case insensitive", func() {
		conf := Default()
		conf.Policy = "LRU"
		parsed, err := Parse(*conf)
		g.Expect(err).To(g.BeNil())
		g.Expect(parsed.Install.Cache.Policy).To(g.Equal(cache.LRU))
	})

	table.DescribeTable("invalid",
		func(modify func(c *Config)) {
			conf := Default()
			modify(conf)
			_, err := Parse(*conf)
			g.Expect(err).To(g.HaveOccurred())
		},
		table.Entry("log level", func(c *Config) { c.LogLevel = "verbose" }),
		table.Entry("policy", func(c *Config) { c.Policy = "mru" }),
		table.Entry("payload size", func(c *Config) { c.PayloadSize = "10x" }),
		table.Entry("too large payload", func(c *Config) { c.PayloadSize = "2m" }),
	)

	table.DescribeTable("parse size",
		func(s string, expected int64) {
			size, err := parseSize(s)
			g.Expect(err).To(g.BeNil())
			g.Expect(size).To(g.Equal(expected))
		},
		table.Entry("bytes", "100b", int64(100)),
		table.Entry("kilobytes", "4k", int64(4<<10)),
		table.Entry("megabytes", "1M", int64(1<<20)),
	)
})
