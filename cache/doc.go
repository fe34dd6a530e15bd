// Package cache provides two level, tag partitioned object cache.
//
// * Every entry is bound to one of fixed set of tags. Tag admits at most
// TagCapacity entries. Insert picks first tag in declaration order that has
// room.
// * First level holds all bound entries. Entry gets per tag sequence index on
// insert, so (tag, index) pair identifies it. Indexes are never reused inside
// tag, so stale ID can't point to newer entry.
// * Second level is fixed array of slots with payload copies of referenced
// entries. Reference checks second level first, then first level. First level
// hit copies entry into second level (promotion). When all slots are occupied,
// eviction policy chooses victim slot: fifo, lru or clock.
// * Withdraw removes entry from both levels and recycles its payload.
//
// All state is guarded by one RWMutex. Lookups take read lock. Every
// check-then-act sequence (admission, promotion, withdraw) runs inside
// single write lock section.
package cache
