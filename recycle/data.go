package recycle

import (
	"bytes"
	"fmt"
	"io"
	"sync/atomic"
)

// Data represents data which can have multiple concurrent readers
// and should been recycled in pool after Recycle call and when all concurrent reads are finished.
type Data struct {
	pool          *Pool
	recycleCalled int32 // Atomic.
	references    int32 // Atomic.
	size          int
	chunks        [][]byte
}

func newData(p *Pool, chunks [][]byte) *Data {
	var size int
	for _, ch := range chunks {
		size += len(ch)
	}
	return &Data{
		pool:       p,
		references: 1,
		size:       size,
		chunks:     chunks,
	}
}

// Len returns data size in bytes. Valid after recycle too.
func (d *Data) Len() int { return d.size }

func (d *Data) NewReader() *DataReader {
	if atomic.LoadInt32(&d.recycleCalled) == 1 {
		panic("read access after recycle call")
	}
	atomic.AddInt32(&d.references, 1)
	return &DataReader{data: d}
}

// Copy returns independent Data with same content, taken from the same pool.
// Copy and d should be recycled separately.
func (d *Data) Copy() *Data {
	r := d.NewReader()
	defer r.Close()
	c, err := d.pool.ReadData(r, d.size)
	if err != nil {
		panic(fmt.Sprintf("copy read failed: %v", err))
	}
	return c
}

// Bytes returns copy of data content. For logging and tests.
func (d *Data) Bytes() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, d.size))
	d.WriteTo(buf)
	return buf.Bytes()
}

func (d *Data) Recycle() {
	if !atomic.CompareAndSwapInt32(&d.recycleCalled, 0, 1) {
		panic("second recycle call")
	}
	d.decReference()
}

func (d *Data) WriteTo(w io.Writer) (nn int64, err error) {
	r := d.NewReader()
	nn, err = r.WriteTo(w)
	r.Close()
	return
}

// Recycled reports whether Recycle was called. Data chunks can be still in use by readers.
func (d *Data) Recycled() bool {
	return atomic.LoadInt32(&d.recycleCalled) == 1
}

func (d *Data) decReference() {
	readersLeft := atomic.AddInt32(&d.references, -1)
	if readersLeft == 0 {
		if atomic.LoadInt32(&d.recycleCalled) != 1 {
			panic("no readers but recycle not called")
		}
		d.pool.recycleData(d)
		d.pool = nil
		d.chunks = nil
	}
}

func (d *Data) isRecycled() bool {
	return d.pool == nil
}

func (d *Data) GoString() string {
	return fmt.Sprintf("{recycleCalled:%v, refs:%v, size:%v}",
		atomic.LoadInt32(&d.recycleCalled) == 1, atomic.LoadInt32(&d.references), d.size)
}
