package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/facebookgo/stackerr"
	"github.com/tailscale/hujson"

	"github.com/skipor/tiercache"
	"github.com/skipor/tiercache/cache"
	"github.com/skipor/tiercache/internal/util"
	"github.com/skipor/tiercache/log"
)

// Parsed is ready to use configuration.
type Parsed struct {
	LogDestination io.Writer
	LogLevel       log.Level
	Install        tiercache.Config
}

func Parse(conf Config) (parsed Parsed, err error) {
	parsed.LogDestination, err = logDestination(conf.LogDestination)
	if err != nil {
		err = stackerr.Newf("Log destination open error: %v", err)
		return
	}
	parsed.LogLevel, err = log.LevelFromString(conf.LogLevel)
	if err != nil {
		err = stackerr.Newf("Log level parse error: %v", err)
		return
	}
	var payloadSize int64
	payloadSize, err = parseSize(conf.PayloadSize)
	if err != nil {
		err = stackerr.Newf("Payload size parse error: %v", err)
		return
	}
	policy := cache.Policy(strings.ToLower(conf.Policy))
	if !knownPolicy(policy) {
		err = stackerr.Newf("Unknown eviction policy %q. Expected one of %v.", conf.Policy, cache.Policies)
		return
	}
	parsed.Install = tiercache.Config{
		Cache: cache.Config{
			TagCapacity: conf.TagCapacity,
			Slots:       conf.Slots,
			Policy:      policy,
		},
		Tags:            conf.Tags,
		Entries:         conf.Entries,
		ReferenceStride: conf.ReferenceStride,
		PayloadSize:     int(payloadSize),
	}
	return
}

func knownPolicy(p cache.Policy) bool {
	for _, known := range cache.Policies {
		if p == known {
			return true
		}
	}
	return false
}

func Default() *Config {
	def := tiercache.DefaultConfig()
	return &Config{
		LogDestination:  "stderr",
		LogLevel:        "info",
		Tags:            def.Tags,
		TagCapacity:     def.Cache.TagCapacity,
		Slots:           def.Cache.Slots,
		Policy:          string(def.Cache.Policy),
		Entries:         def.Entries,
		ReferenceStride: def.ReferenceStride,
		PayloadSize:     "64b",
	}
}

type Config struct {
	LogDestination string `json:"log-destination,omitempty"` // Stdout, stderr, or filepath.
	LogLevel       string `json:"log-level,omitempty"`
	Tags           int    `json:"tags,omitempty"`
	TagCapacity    int    `json:"tag-capacity,omitempty"`
	Slots          int    `json:"slots,omitempty"`
	Policy         string `json:"policy,omitempty"`
	Entries        int    `json:"entries,omitempty"`
	// ReferenceStride selects entries referenced on first pass.
	ReferenceStride int `json:"reference-stride,omitempty"`
	// Size values 1m, 1024k, 64b
	PayloadSize string `json:"payload-size,omitempty"`
}

// Merge overwrites def values with non zero override values.
func Merge(def, override *Config) {
	defVal := reflect.ValueOf(def).Elem()
	overrideVal := reflect.ValueOf(override).Elem()
	for i, end := 0, defVal.NumField(); i < end; i++ {
		overrideVal := overrideVal.Field(i)
		if !util.IsZeroVal(overrideVal) {
			defVal.Field(i).Set(overrideVal)
		}
	}
}

// Unmarshal parses JSON with comments and trailing commas.
func Unmarshal(data []byte, conf *Config) error {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return stackerr.Newf("Invalid config: %v", err)
	}
	err = json.Unmarshal(standardized, conf)
	if err != nil {
		return stackerr.Newf("Invalid config: %v", err)
	}
	return nil
}

func ReadFile(name string, conf *Config) error {
	data, err := ioutil.ReadFile(name)
	if err != nil {
		return stackerr.Wrap(err)
	}
	return Unmarshal(data, conf)
}

func Marshal(conf *Config) []byte {
	data, err := json.MarshalIndent(conf, "", "  ")
	if err != nil {
		panic(err)
	}
	return data
}

func parseSize(s string) (size int64, err error) {
	if len(s) < 2 {
		err = errors.New("Invalid size format.")
		return
	}
	sep := len(s) - 1
	sizeStr := s[:sep]
	exponentStr := s[sep:]
	var exponent uint32
	switch strings.ToLower(exponentStr) {
	case "b":
		exponent = 0
	case "k":
		exponent = 10
	case "m":
		exponent = 20
	default:
		err = errors.New("Invalid exponent. Only 'b', 'k', 'm' allowed.")
		return
	}
	size, err = strconv.ParseInt(sizeStr, 10, 31)
	if err != nil {
		err = fmt.Errorf("Size parse error: %s", err)
		return
	}
	size <<= exponent
	if size > tiercache.MaxPayloadSize {
		err = fmt.Errorf("Size %v is greater than max %v.", size, tiercache.MaxPayloadSize)
	}
	return
}

func logDestination(dest string) (w io.Writer, err error) {
	switch strings.ToLower(dest) {
	case "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		w, err = os.OpenFile(dest, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	}
	return
}
