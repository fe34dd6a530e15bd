package cache

// Pre and post conditions (Invariants) for insert and remove methods:
// * level1 owns entries between fakeHead and fakeTail.
// * {fakeHead, all owned entries, fakeTail} are correct doubly linked list.
// * all entries owned by level1 have field entry.owner equal to &level1
// * table contains exactly owned entries, keyed by their ID.
// * there are no recycled data in owned entries.
type level1 struct {
	table map[ID]*Entry

	// Fake entries. Real entries are between them.
	// nil <- fakeHead <-> entry_0 <-> ... <-> entry_(n-1) <-> fakeTail -> nil
	// Such structure prevent nil checks in code.

	// fakeHead.next is most lately inserted entry.
	fakeHead *Entry
	fakeTail *Entry
}

// For debug output.
const fakeHeadTag = " !HEAD! "
const fakeTailTag = " !TAIL! "

func newLevel1() *level1 {
	l := &level1{table: make(map[ID]*Entry)}
	l.fakeHead = &Entry{id: ID{fakeHeadTag, unbound}}
	l.fakeTail = &Entry{id: ID{fakeTailTag, unbound}}
	link(l.fakeHead, l.fakeTail)
	return l
}

// insert binds e to t and links it at list head.
// Caller should check that t admits new entry.
func (l *level1) insert(e *Entry, t *tag) {
	e.id = ID{t.label, t.next}
	t.next++
	e.owner = l
	link(e, l.head())
	link(l.fakeHead, e)
	l.table[e.id] = e
	t.incUsage()
}

// remove unlinks e and recycles its payload.
// Caller should decrement owning tag usage.
func (l *level1) remove(e *Entry) {
	if e.owner != l {
		panic("remove of not owned entry " + e.id.String())
	}
	link(e.prev, e.next)
	delete(l.table, e.id)
	e.data.Recycle()
	e.owner = nil
	e.prev = nil
	e.next = nil
}

func (l *level1) find(id ID) (*Entry, bool) {
	e, ok := l.table[id]
	return e, ok
}

// count counts entries bound to label by list scan.
func (l *level1) count(label string) (n int) {
	for e := l.head(); !l.end(e); e = e.next {
		if e.id.Tag == label {
			n++
		}
	}
	return
}

// ids returns IDs in list order: most lately inserted first.
func (l *level1) ids() []ID {
	ids := make([]ID, 0, len(l.table))
	for e := l.head(); !l.end(e); e = e.next {
		ids = append(ids, e.id)
	}
	return ids
}

func (l *level1) head() *Entry      { return l.fakeHead.next }
func (l *level1) tail() *Entry      { return l.fakeTail.prev }
func (l *level1) end(e *Entry) bool { return e == l.fakeTail }
func (l *level1) len() int          { return len(l.table) }

func link(a, b *Entry) { a.next, b.prev = b, a }
