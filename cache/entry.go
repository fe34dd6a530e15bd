package cache

import (
	"fmt"
	"io"

	"github.com/skipor/tiercache/recycle"
)

// unbound is sequence index of entry that is not in cache and of free slot.
const unbound = -1

// ID identifies logical cache object: tag label and sequence index inside tag.
type ID struct {
	Tag   string
	Index int
}

func (id ID) bound() bool { return id.Index != unbound }

func (id ID) String() string { return fmt.Sprintf("%s#%d", id.Tag, id.Index) }

type State uint8

const (
	Unbound State = iota
	FirstLevel
	Promoted
	Withdrawn
)

func (s State) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case FirstLevel:
		return "first-level"
	case Promoted:
		return "promoted"
	case Withdrawn:
		return "withdrawn"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Level is cache level that served reference.
type Level uint8

const (
	Miss Level = iota
	Level1
	Level2
)

func (l Level) String() string {
	switch l {
	case Miss:
		return "miss"
	case Level1:
		return "L1"
	case Level2:
		return "L2"
	}
	return fmt.Sprintf("Level(%d)", uint8(l))
}

// Entry is first level cache placement. Entry owns its payload: after Withdraw
// payload is recycled and entry can't be used again.
// Entry is not safe for concurrent Insert and Withdraw calls.
type Entry struct {
	data *recycle.Data
	id   ID
	// owner is level that holds entry. nil for unbound and withdrawn entries.
	owner     *level1
	withdrawn bool
	prev      *Entry
	next      *Entry
}

// NewEntry creates unbound entry that takes data ownership.
func NewEntry(data *recycle.Data) *Entry {
	return &Entry{
		data: data,
		id:   ID{Index: unbound},
	}
}

// ReadEntry reads size bytes payload from r into new unbound entry.
// Read error fails this entry only, nothing is allocated in that case.
func ReadEntry(p *recycle.Pool, r io.Reader, size int) (*Entry, error) {
	data, err := p.ReadData(r, size)
	if err != nil {
		return nil, err
	}
	return NewEntry(data), nil
}

// Discard recycles payload of entry that was not inserted. Entry can't be used after that.
func (e *Entry) Discard() {
	if e.owner != nil || e.withdrawn {
		panic("discard of bound or withdrawn entry " + e.id.String())
	}
	e.data.Recycle()
	e.withdrawn = true
}

// ID returns identity assigned on insert. Index is -1 for unbound entry.
// Should not be called concurrently with Insert or Withdraw of same entry.
func (e *Entry) ID() ID { return e.id }

// Len returns payload size.
func (e *Entry) Len() int { return e.data.Len() }

func (e *Entry) GoString() string {
	key := func(n *Entry) interface{} {
		if n == nil {
			return nil
		}
		return n.id.String()
	}
	return fmt.Sprintf("{id:%v, data:%#v, withdrawn:%v, owner:%p, prev:%v, next:%v}",
		e.id, e.data, e.withdrawn, e.owner, key(e.prev), key(e.next))
}

var _ fmt.GoStringer = (*Entry)(nil)

// View is reference result with payload access. Reader must be closed.
type View struct {
	ID     ID
	Level  Level
	Reader *recycle.DataReader
}
