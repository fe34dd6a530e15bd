package cache

import (
	"github.com/facebookgo/stackerr"
)

// tag is cache partition. It holds no entry pointers, only derived usage.
type tag struct {
	label string
	// usage is number of first level entries bound to tag.
	usage int
	// next is sequence index for next inserted entry.
	next int
}

func (t *tag) incUsage() { t.usage++ }

func (t *tag) decUsage() {
	if t.usage == 0 {
		panic("tag " + t.label + " usage underflow")
	}
	t.usage--
}

// TagInfo is tag state snapshot.
type TagInfo struct {
	Label string
	Usage int
}

// registry is ordered set of tags. Order is order of declaration and it is
// the order of first-fit admission.
type registry struct {
	tags     []*tag
	byLabel  map[string]*tag
	capacity int
}

func newRegistry(labels []string, capacity int) (*registry, error) {
	if len(labels) == 0 {
		return nil, stackerr.New("no tags declared")
	}
	r := &registry{
		tags:     make([]*tag, 0, len(labels)),
		byLabel:  make(map[string]*tag, len(labels)),
		capacity: capacity,
	}
	for _, label := range labels {
		if label == "" {
			return nil, stackerr.New("empty tag label")
		}
		if _, ok := r.byLabel[label]; ok {
			return nil, stackerr.Newf("duplicate tag label %q", label)
		}
		t := &tag{label: label}
		r.tags = append(r.tags, t)
		r.byLabel[label] = t
	}
	return r, nil
}

func (r *registry) lookup(label string) (*tag, bool) {
	t, ok := r.byLabel[label]
	return t, ok
}

func (r *registry) admits(t *tag) bool { return t.usage < r.capacity }

// firstFit returns first tag in declaration order that admits new entry.
func (r *registry) firstFit() (*tag, bool) {
	for _, t := range r.tags {
		if r.admits(t) {
			return t, true
		}
	}
	return nil, false
}

func (r *registry) infos() []TagInfo {
	infos := make([]TagInfo, len(r.tags))
	for i, t := range r.tags {
		infos[i] = TagInfo{t.label, t.usage}
	}
	return infos
}
