package tiercache

import (
	"github.com/skipor/tiercache/cache"
	"github.com/skipor/tiercache/recycle"
)

const (
	DefaultTags            = 100
	DefaultReferenceStride = 10
	MaxPayloadSize         = 1 << 20
)

type Config struct {
	Cache cache.Config
	// Tags is number of tags. Labels are made by TagLabels.
	Tags int
	// Entries is number of entries to insert on Install.
	Entries int
	// ReferenceStride selects entries referenced on first pass.
	ReferenceStride int
	// PayloadSize pads entry payload to this size.
	PayloadSize int
	// Pool for entry payloads. New pool is used if nil.
	Pool *recycle.Pool
}

func DefaultConfig() Config {
	return Config{
		Cache: cache.Config{
			TagCapacity: cache.DefaultTagCapacity,
			Slots:       cache.DefaultSlots,
			Policy:      cache.FIFO,
		},
		Tags:            DefaultTags,
		Entries:         DefaultTags * cache.DefaultTagCapacity,
		ReferenceStride: DefaultReferenceStride,
	}
}
