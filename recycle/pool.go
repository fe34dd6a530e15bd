// Package recycle contains utilities for recyclable, concurrent read only memory usage.
// Cache entry payloads live in pooled chunks: an entry owns its Data, a promoted
// copy owns another one, and both return chunks to the Pool on Recycle.
package recycle

import (
	"bytes"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"
)

const minDefChunkSize = 1 << 7
const maxDefChunkSize = 1 << 16

var DefaultChunkSizes = func() (sz []int) {
	for chSz := minDefChunkSize; chSz <= maxDefChunkSize; chSz *= 2 {
		sz = append(sz, chSz)
	}
	return
}()

type Pool struct {
	leakCallback LeakCallback
	chunkSizes   []int
	chunkPools   []sync.Pool
}

func NewPool() *Pool {
	return NewPoolSizes(DefaultChunkSizes)
}

// NewPoolSizes creates new pool, which produce chunks with sizes described in chunkSizes.
// chunkSizes should be sorted.
func NewPoolSizes(chunkSizes []int) *Pool {
	if chunkSizes == nil {
		chunkSizes = DefaultChunkSizes[:]
	}
	for i := 0; i < len(chunkSizes); i++ {
		size := chunkSizes[i]
		if size <= 0 {
			panic("non positive size")
		}
		if i != 0 && chunkSizes[i-1] >= size {
			panic("sizes unsorted or have duplicates")
		}
	}
	chunkPools := make([]sync.Pool, len(chunkSizes))
	for i := range chunkSizes {
		size := chunkSizes[i]
		chunkPools[i].New = func() interface{} {
			return make([]byte, size)
		}
	}
	return &Pool{
		chunkSizes: chunkSizes,
		chunkPools: chunkPools,
	}
}

// ReadData reads exactly size bytes from r into pooled chunks.
// On error all already taken chunks are returned to pool and nil Data returned.
func (p *Pool) ReadData(r io.Reader, size int) (*Data, error) {
	chunksNum := (size + p.MaxChunkSize() - 1) / p.MaxChunkSize()
	chunks := make([][]byte, 0, chunksNum)
	for i := 0; i < chunksNum; i++ {
		ch := p.chunk(size)
		chunks = append(chunks, ch)
		n, err := io.ReadFull(r, ch)
		if err != nil {
			for _, ch := range chunks {
				p.recycleChunk(ch)
			}
			return nil, err
		}
		size -= n
	}
	return p.newData(chunks), nil
}

// NewData copies b into pooled chunks.
func (p *Pool) NewData(b []byte) *Data {
	d, err := p.ReadData(bytes.NewReader(b), len(b))
	if err != nil {
		panic(fmt.Sprintf("read from memory failed: %v", err))
	}
	return d
}

func (p *Pool) newData(chunks [][]byte) *Data {
	d := newData(p, chunks)
	if p.leakCallback != nil {
		runtime.SetFinalizer(d, checkLeakFinalizer(p.leakCallback))
	}
	return d
}

type LeakCallback func(*Data)

// SetLeakCallback sets callback, which is called before GC of not recycled data.
// Note: this is for test and debug purpose only.
func (p *Pool) SetLeakCallback(cb LeakCallback) {
	p.leakCallback = cb
}

func NotifyOnLeak(leak chan<- *Data) LeakCallback {
	return func(d *Data) {
		select {
		case leak <- d:
		case <-time.After(5 * time.Second):
			panic("Nobody is listening for leak notification")
		}
	}
}

var PanicOnLeak LeakCallback = func(d *Data) {
	panic(fmt.Sprintf("recycle.Data leaked: %#v.", d))
}
var WarnOnLeak LeakCallback = func(d *Data) {
	println("WARN: recycle.Data leaked.")
}

func (p *Pool) recycleData(d *Data) {
	for _, ch := range d.chunks {
		p.recycleChunk(ch)
	}
}

// chunk return chunk for Data.
// returned slice len equal to size or p.maxChunkSize()
func (p *Pool) chunk(size int) []byte {
	if p.isGCChunkSize(size) {
		// GC will handle such case better.
		return make([]byte, size)
	}
	var i int
	// O(n) but len(chunkSizes) should be <= 30 normally.
	for i = range p.chunkSizes {
		if size <= p.chunkSizes[i] {
			return p.chunkPools[i].Get().([]byte)[0:size]
		}
	}
	return p.chunkPools[i].Get().([]byte)
}

func (p *Pool) recycleChunk(chunk []byte) {
	size := cap(chunk)
	if p.isGCChunkSize(size) {
		// Garbage, that should be collected by GC.
		return
	}
	for i := range p.chunkSizes {
		if size == p.chunkSizes[i] {
			p.chunkPools[i].Put(chunk[:size])
			return
		}
	}
	panic(fmt.Errorf("unexpected chunk size: %d", size))
}

func (p *Pool) MinChunkSize() int {
	return p.chunkSizes[0]
}

func (p *Pool) MaxChunkSize() int {
	return p.chunkSizes[len(p.chunkSizes)-1]
}

func (p *Pool) isGCChunkSize(size int) bool {
	return size <= p.MinChunkSize()/2
}

func checkLeakFinalizer(cb LeakCallback) func(*Data) {
	return func(d *Data) {
		if !d.isRecycled() {
			cb(d)
		}
	}
}
