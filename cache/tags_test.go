package cache

import (
	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("Tag registry", func() {
	It("keeps declaration order", func() {
		r, err := newRegistry([]string{"b", "a", "c"}, 4)
		Expect(err).To(BeNil())
		Expect(r.infos()).To(Equal([]TagInfo{{"b", 0}, {"a", 0}, {"c", 0}}))
	})

	table.DescribeTable("invalid labels",
		func(labels []string) {
			r, err := newRegistry(labels, 4)
			Expect(err).To(HaveOccurred())
			Expect(r).To(BeNil())
		},
		table.Entry("none", []string{}),
		table.Entry("empty", []string{"a", ""}),
		table.Entry("duplicate", []string{"a", "b", "a"}),
	)

	Context("first fit", func() {
		var r *registry
		BeforeEach(func() {
			var err error
			r, err = newRegistry([]string{"a", "b"}, 2)
			Expect(err).To(BeNil())
		})
		It("picks first tag with room", func() {
			t, ok := r.firstFit()
			Expect(ok).To(BeTrue())
			Expect(t.label).To(Equal("a"))

			t.incUsage()
			t.incUsage()
			Expect(r.admits(t)).To(BeFalse())
			t, ok = r.firstFit()
			Expect(ok).To(BeTrue())
			Expect(t.label).To(Equal("b"))
		})
		It("reports none when all full", func() {
			for _, t := range r.tags {
				t.incUsage()
				t.incUsage()
			}
			_, ok := r.firstFit()
			Expect(ok).To(BeFalse())
		})
		It("lookup", func() {
			t, ok := r.lookup("b")
			Expect(ok).To(BeTrue())
			Expect(t).To(BeIdenticalTo(r.tags[1]))
			_, ok = r.lookup("x")
			Expect(ok).To(BeFalse())
		})
	})

	It("usage underflow panics", func() {
		t := &tag{label: "a"}
		Expect(t.decUsage).To(Panic())
	})
})
