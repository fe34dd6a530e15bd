// +build debug

// Gomega should not be dependency in non-debug build.

package cache

import (
	"errors"
	"log"

	"github.com/facebookgo/stackerr"
	. "github.com/onsi/gomega"
)

var _ = func() (_ struct{}) {
	RegisterFailHandler(GomegaFailHandler)
	return
}()

func GomegaFailHandler(message string, callerSkip ...int) {
	skip := 1
	if len(callerSkip) > 0 {
		skip += callerSkip[0]
	}
	log.Fatal("FATAL: invariants are broken:", stackerr.WrapSkip(errors.New(message), skip))
}

func (l *level1) checkInvariants() {
	Expect(l.fakeHead.prev).To(BeNil())
	Expect(l.fakeTail.next).To(BeNil())
	Expect(l.fakeHead.owner).To(BeNil())
	Expect(l.fakeTail.owner).To(BeNil())
	var entries int
	for e := l.head(); !l.end(e); e = e.next {
		entries++
		Expect(e.prev.next).To(BeIdenticalTo(e))
		Expect(e.owner).To(BeIdenticalTo(l))
		Expect(e.id.bound()).To(BeTrue())
		te, ok := l.table[e.id]
		Expect(ok).To(BeTrue(), e.id.String(), "no table ref to entry")
		Expect(te).To(BeIdenticalTo(e), "table refs to another entry")
	}
	Expect(l.tail().next).To(BeIdenticalTo(l.fakeTail))
	Expect(entries).To(Equal(len(l.table)), "too many entries in table")
}

func (c *Cache) checkInvariants() {
	c.l1.checkInvariants()
	for _, t := range c.tags.tags {
		ExpectWithOffset(1, t.usage).To(Equal(c.l1.count(t.label)), "tag %q usage", t.label)
		ExpectWithOffset(1, t.usage).To(BeNumerically("<=", c.tags.capacity), "tag %q overflow", t.label)
	}
	ExpectWithOffset(1, c.l2.occupied()).To(BeNumerically("<=", len(c.l2.slots)))
	seen := map[ID]bool{}
	for _, s := range c.l2.slots {
		if s.free() {
			Expect(s.data).To(BeNil())
			continue
		}
		ExpectWithOffset(1, seen[s.id]).To(BeFalse(), "%v promoted twice", s.id)
		seen[s.id] = true
		_, ok := c.l1.find(s.id)
		ExpectWithOffset(1, ok).To(BeTrue(), "dangling promotion %v", s.id)
	}
}
