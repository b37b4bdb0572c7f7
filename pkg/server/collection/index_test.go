package collection

import (
	"strconv"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"

	"github.com/AutoMQ/collection-store/pkg/server/document"
)

func intPtr(i int) *int {
	return &i
}

func keysOf(entries []Entry) []string {
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys
}

func TestIndex(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	x := NewIndex()
	re.Equal(0, x.Len())
	re.False(x.Exists("a"))

	re.True(x.Put("a", document.Int(1)))
	re.True(x.Put("b", document.Int(2)))
	re.True(x.Put("c", document.Int(3)))
	re.Equal(3, x.Len())

	v, ok := x.Get("b")
	re.True(ok)
	re.True(document.Equal(document.Int(2), v))

	// overwrite keeps the position
	re.False(x.Put("a", document.String("x")))
	re.Equal(3, x.Len())
	re.Equal([]string{"a", "b", "c"}, keysOf(x.List(Bounds{})))
	v, _ = x.Get("a")
	re.Equal("x", v.AsString())

	re.True(x.Delete("b"))
	re.False(x.Delete("b"))
	re.False(x.Exists("b"))
	_, ok = x.Get("b")
	re.False(ok)
	re.Equal([]string{"a", "c"}, keysOf(x.List(Bounds{})))

	// a re-put key is appended
	re.True(x.Put("b", document.Null()))
	re.Equal([]string{"a", "c", "b"}, keysOf(x.List(Bounds{})))
}

func TestIndex_List(t *testing.T) {
	keys := []string{"k0", "k1", "k2", "k3", "k4"}
	tests := []struct {
		name   string
		bounds Bounds
		want   []string
	}{
		{name: "unbounded", bounds: Bounds{}, want: keys},
		{name: "negative from", bounds: Bounds{From: intPtr(-3)}, want: keys},
		{name: "to beyond size", bounds: Bounds{To: intPtr(10)}, want: keys},
		{name: "inclusive", bounds: Bounds{From: intPtr(1), To: intPtr(3)}, want: []string{"k1", "k2", "k3"}},
		{name: "single", bounds: Bounds{From: intPtr(4), To: intPtr(4)}, want: []string{"k4"}},
		{name: "from only", bounds: Bounds{From: intPtr(3)}, want: []string{"k3", "k4"}},
		{name: "to only", bounds: Bounds{To: intPtr(0)}, want: []string{"k0"}},
		{name: "from beyond size", bounds: Bounds{From: intPtr(5)}, want: []string{}},
		{name: "from after to", bounds: Bounds{From: intPtr(3), To: intPtr(1)}, want: []string{}},
		{name: "negative to", bounds: Bounds{To: intPtr(-1)}, want: []string{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			re := require.New(t)

			x := NewIndex()
			for i, k := range keys {
				x.Put(k, document.Int(int64(i)))
			}

			entries := x.List(tt.bounds)
			re.NotNil(entries)
			re.Equal(tt.want, keysOf(entries))
			for _, e := range entries {
				i, _ := strconv.Atoi(e.Key[1:])
				re.True(document.Equal(document.Int(int64(i)), e.Value))
			}
		})
	}
}

func TestIndex_Empty(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	x := NewIndex()
	entries := x.List(Bounds{})
	re.NotNil(entries)
	re.Empty(entries)
	re.Empty(x.List(Bounds{From: intPtr(0), To: intPtr(0)}))
}

// TestIndex_Random checks the index against a plain slice under random operations.
func TestIndex_Random(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	f := gofakeit.New(1)
	x := NewIndex()
	var order []string
	values := make(map[string]int64)

	for i := 0; i < 20000; i++ {
		key := "key-" + strconv.Itoa(f.Number(0, 300))
		switch f.Number(0, 2) {
		case 0, 1:
			value := f.Int64()
			_, exists := values[key]
			re.Equal(!exists, x.Put(key, document.Int(value)))
			if !exists {
				order = append(order, key)
			}
			values[key] = value
		case 2:
			_, exists := values[key]
			re.Equal(exists, x.Delete(key))
			if exists {
				delete(values, key)
				for j, k := range order {
					if k == key {
						order = append(order[:j], order[j+1:]...)
						break
					}
				}
			}
		}
		re.Equal(len(order), x.Len())

		if i%97 == 0 {
			from, to := f.Number(-5, len(order)+5), f.Number(-5, len(order)+5)
			entries := x.List(Bounds{From: &from, To: &to})
			lo, hi := from, to
			if lo < 0 {
				lo = 0
			}
			if hi > len(order)-1 {
				hi = len(order) - 1
			}
			if lo > hi {
				re.Empty(entries)
				continue
			}
			re.Equal(order[lo:hi+1], keysOf(entries))
			for _, e := range entries {
				re.True(document.Equal(document.Int(values[e.Key]), e.Value))
			}
		}
	}
	re.Equal(order, keysOf(x.List(Bounds{})))
}

func TestIndex_Compact(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	x := NewIndex()
	for i := 0; i < 200; i++ {
		x.Put(strconv.Itoa(i), document.Int(int64(i)))
	}
	for i := 0; i < 200; i++ {
		if i%3 != 0 {
			re.True(x.Delete(strconv.Itoa(i)))
		}
	}
	// more than half of the slots were tombstones at some point
	re.Less(len(x.slots), 200)
	re.Equal(67, x.Len())

	entries := x.List(Bounds{From: intPtr(10), To: intPtr(12)})
	re.Equal([]string{"30", "33", "36"}, keysOf(entries))
	re.True(x.Put("new", document.Null()))
	re.Equal([]string{"198", "new"}, keysOf(x.List(Bounds{From: intPtr(66)})))
}
