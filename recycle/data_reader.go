package recycle

import "io"

// DataReader holds Data reference until closed: recycled Data chunks are
// returned to pool only after all readers are closed.
type DataReader struct {
	data       *Data
	chunkIndex int
	byteIndex  int
	readBytes  int
}

var _ interface {
	io.ReadCloser
	io.WriterTo
} = (*DataReader)(nil)

func (r *DataReader) WriteTo(w io.Writer) (nn int64, err error) {
	for !r.eof() {
		var n int
		n, err = w.Write(r.chunk())
		r.advance(n)
		nn += int64(n)
		if err != nil {
			return
		}
	}
	return
}

func (r *DataReader) Read(p []byte) (nn int, err error) {
	for nn < len(p) && !r.eof() {
		n := copy(p[nn:], r.chunk())
		r.advance(n)
		nn += n
	}
	if r.eof() {
		err = io.EOF
	}
	return
}

// Len returns number of unread bytes.
func (r *DataReader) Len() int {
	if r.isClosed() {
		return 0
	}
	return r.data.size - r.readBytes
}

// Close is safe to call multiple times.
func (r *DataReader) Close() error {
	if !r.isClosed() {
		r.data.decReference()
		r.data = nil
	}
	return nil
}

func (r *DataReader) isClosed() bool {
	return r.data == nil
}

func (r *DataReader) eof() bool {
	return r.chunkIndex >= len(r.data.chunks)
}

func (r *DataReader) chunk() []byte {
	return r.data.chunks[r.chunkIndex][r.byteIndex:]
}

func (r *DataReader) advance(n int) {
	r.readBytes += n
	if n < len(r.chunk()) {
		r.byteIndex += n
		return
	}
	r.chunkIndex++
	r.byteIndex = 0
}
