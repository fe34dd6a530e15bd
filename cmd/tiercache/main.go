package main

import (
	"bytes"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/natefinch/atomic"
	"github.com/rcrowley/go-metrics"
	flag "github.com/spf13/pflag"

	"github.com/skipor/tiercache"
	"github.com/skipor/tiercache/cache"
	"github.com/skipor/tiercache/cmd/tiercache/config"
	"github.com/skipor/tiercache/internal/tag"
	"github.com/skipor/tiercache/internal/util"
	"github.com/skipor/tiercache/log"
)

const usage = `
Installs tag partitioned two level cache, fills and references it, then removes it.
Config values merge rules:
1) config file value overrides default
2) command line value overrides any
Options:
`

type Flags struct {
	ConfigPath  string
	WriteConfig string
	Wait        bool
	Metrics     bool
	config.Config
}

func main() {
	l := log.NewLogger(log.DebugLevel, os.Stderr)
	flg := parseFlags()
	fileConf := config.Default()
	if flg.ConfigPath != "" {
		err := config.ReadFile(flg.ConfigPath, fileConf)
		if err != nil {
			l.Fatal("Config read error: ", util.Unwrap(err))
		}
	}
	config.Merge(fileConf, &flg.Config)
	if flg.WriteConfig != "" {
		err := atomic.WriteFile(flg.WriteConfig, bytes.NewReader(config.Marshal(fileConf)))
		if err != nil {
			l.Fatal("Config write error: ", err)
		}
		l.Infof("Config is written to %s.", flg.WriteConfig)
		return
	}
	conf, err := config.Parse(*fileConf)
	if err != nil {
		l.Fatal(util.Unwrap(err))
	}

	l = log.NewLogger(conf.LogLevel, conf.LogDestination)
	l.Debugf("Config: %#v", fileConf)
	if tag.Debug {
		l.Warn("Using debug build. It has more runtime checks and large perfomance overhead.")
	}
	registry := metrics.NewRegistry()
	conf.Install.Cache.Metrics = registry

	lc, err := tiercache.Install(l, conf.Install)
	if err != nil {
		l.Fatal("Install error: ", util.Unwrap(err))
	}
	r := lc.Report
	l.Infof("Installed: %v inserted, %v rejected, %v references: %v L1 hits, %v L2 hits, %v misses.",
		r.Inserted, r.Rejected, r.Referenced, r.Levels[cache.Level1], r.Levels[cache.Level2], r.Levels[cache.Miss])

	if flg.Wait {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		l.Info("Waiting for signal to remove cache.")
		l.Infof("Got %v.", <-sig)
	}
	lc.Remove()
	if flg.Metrics {
		metrics.WriteOnce(registry, os.Stdout)
	}
}

func parseFlags() Flags {
	var f Flags
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s", usage)
		flag.PrintDefaults()
	}
	flag.StringVar(&f.ConfigPath, "config", "", "path to json config, comments allowed")
	flag.StringVar(&f.WriteConfig, "write-config", "", "write merged config to path and exit")
	flag.BoolVar(&f.Wait, "wait", false, "wait for SIGINT or SIGTERM before removing cache")
	flag.BoolVar(&f.Metrics, "metrics", false, "print cache metrics to stdout on exit")

	def := config.Default()
	usage := func(usage string, defVal interface{}) string {
		if _, ok := defVal.(string); ok {
			usage += fmt.Sprintf(" (default %q)", defVal)
		} else {
			usage += fmt.Sprintf(" (default %v)", defVal)
		}
		return usage
	}
	flag.StringVar(&f.LogDestination, "log-destination", "", usage("log destination: stderr, stdout or file path", def.LogDestination))
	flag.StringVar(&f.LogLevel, "log-level", "", usage("log level: debug, info, warn, error, fatal", def.LogLevel))
	flag.IntVar(&f.Tags, "tags", 0, usage("number of tags", def.Tags))
	flag.IntVar(&f.TagCapacity, "tag-capacity", 0, usage("max entries per tag", def.TagCapacity))
	flag.IntVar(&f.Slots, "slots", 0, usage("second level slots", def.Slots))
	flag.StringVar(&f.Policy, "policy", "", usage("second level eviction policy: fifo, lru, clock", def.Policy))
	flag.IntVar(&f.Entries, "entries", 0, usage("entries to insert on install", def.Entries))
	flag.IntVar(&f.ReferenceStride, "reference-stride", 0, usage("reference every n-th entry on first pass", def.ReferenceStride))
	flag.StringVar(&f.PayloadSize, "payload-size", "", usage("entry payload size: 1m, 1024k, 64b", def.PayloadSize))
	flag.Parse()
	return f
}
