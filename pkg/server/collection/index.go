package collection

import (
	"github.com/AutoMQ/collection-store/pkg/server/document"
)

const (
	// _minCompactTombstones is the minimum number of tombstones before compaction.
	_minCompactTombstones = 64
)

// Entry is a key and its value.
type Entry struct {
	Key   string            `json:"key"`
	Value document.Document `json:"value"`
}

// Bounds is an inclusive positional range. A nil side is unbounded.
type Bounds struct {
	From *int
	To   *int
}

type slot struct {
	key   string
	value document.Document
	live  bool
}

// Index keeps the keys of a collection in insertion order.
// Point operations are O(1) and locating a position is O(log n).
// It is not safe for concurrent use.
type Index struct {
	slots []slot
	// tree is a 1-based Fenwick tree over live slot counts.
	tree       []int
	positions  map[string]int
	tombstones int
}

// NewIndex creates an empty Index.
func NewIndex() *Index {
	return &Index{
		tree:      []int{0},
		positions: make(map[string]int),
	}
}

// Put sets the value of key. A new key is appended at the end, an existing one keeps its position.
// It returns true if the key is new.
func (x *Index) Put(key string, value document.Document) (created bool) {
	if i, ok := x.positions[key]; ok {
		x.slots[i].value = value
		return false
	}
	x.positions[key] = len(x.slots)
	x.slots = append(x.slots, slot{key: key, value: value, live: true})
	x.appendTree()
	return true
}

// Get returns the value of key.
func (x *Index) Get(key string) (document.Document, bool) {
	i, ok := x.positions[key]
	if !ok {
		return document.Document{}, false
	}
	return x.slots[i].value, true
}

// Exists reports whether key is present.
func (x *Index) Exists(key string) bool {
	_, ok := x.positions[key]
	return ok
}

// Delete removes key. It returns false if key is absent.
func (x *Index) Delete(key string) bool {
	i, ok := x.positions[key]
	if !ok {
		return false
	}
	delete(x.positions, key)
	x.slots[i] = slot{}
	x.tombstones++
	x.add(i+1, -1)

	if x.tombstones >= _minCompactTombstones && 2*x.tombstones > len(x.slots) {
		x.compact()
	}
	return true
}

// Len returns the number of keys.
func (x *Index) Len() int {
	return len(x.positions)
}

// List returns the entries within b, clipped to the existing positions.
// The result is empty, not nil, if nothing is in range.
func (x *Index) List(b Bounds) []Entry {
	from, to := 0, x.Len()-1
	if b.From != nil && *b.From > from {
		from = *b.From
	}
	if b.To != nil && *b.To < to {
		to = *b.To
	}
	if from > to {
		return []Entry{}
	}
	return x.Range(from, to)
}

// Range returns the entries at positions [from, to].
// Both must be valid positions and from <= to.
func (x *Index) Range(from, to int) []Entry {
	entries := make([]Entry, 0, to-from+1)
	for i := x.find(from); i < len(x.slots) && len(entries) < cap(entries); i++ {
		s := x.slots[i]
		if !s.live {
			continue
		}
		entries = append(entries, Entry{Key: s.key, Value: s.value})
	}
	return entries
}

// find returns the slot of the live entry at position pos.
func (x *Index) find(pos int) int {
	n := len(x.slots)
	step := 1
	for step*2 <= n {
		step *= 2
	}
	// j ends at the largest index whose prefix count is <= pos
	j, remain := 0, pos
	for ; step > 0; step /= 2 {
		if j+step <= n && x.tree[j+step] <= remain {
			j += step
			remain -= x.tree[j]
		}
	}
	return j
}

// appendTree extends the tree for the last slot, which is live.
func (x *Index) appendTree() {
	j := len(x.slots)
	x.tree = append(x.tree, 1+x.prefix(j-1)-x.prefix(j-lowbit(j)))
}

func (x *Index) add(j, delta int) {
	for ; j < len(x.tree); j += lowbit(j) {
		x.tree[j] += delta
	}
}

// prefix returns the number of live slots in [1, j].
func (x *Index) prefix(j int) (sum int) {
	for ; j > 0; j -= lowbit(j) {
		sum += x.tree[j]
	}
	return
}

func (x *Index) compact() {
	slots := make([]slot, 0, len(x.positions))
	for _, s := range x.slots {
		if s.live {
			x.positions[s.key] = len(slots)
			slots = append(slots, s)
		}
	}
	tree := make([]int, len(slots)+1)
	for j := 1; j < len(tree); j++ {
		tree[j]++
		if p := j + lowbit(j); p < len(tree) {
			tree[p] += tree[j]
		}
	}
	x.slots = slots
	x.tree = tree
	x.tombstones = 0
}

func lowbit(j int) int {
	return j & -j
}
