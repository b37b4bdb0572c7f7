package collection

import (
	"strconv"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/AutoMQ/collection-store/pkg/server/document"
	"github.com/AutoMQ/collection-store/pkg/server/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordedEvent struct {
	collection string
	Event
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Notify(c *Collection, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{collection: c.Name(), Event: e})
}

func (r *recorder) operations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make([]string, 0, len(r.events))
	for _, e := range r.events {
		ops = append(ops, e.collection+":"+e.Operation.String()+":"+e.Key)
	}
	return ops
}

func TestCollection(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	rec := &recorder{}
	r := NewRegistry(rec)
	c, err := r.Create("users")
	re.NoError(err)
	re.Equal("users", c.Name())

	created, err := c.Put("alice", document.String("a"))
	re.NoError(err)
	re.True(created)
	created, err = c.Put("alice", document.String("b"))
	re.NoError(err)
	re.False(created)

	v, err := c.Get("alice")
	re.NoError(err)
	re.Equal("b", v.AsString())

	_, err = c.Get("bob")
	re.ErrorIs(err, model.ErrKeyNotFound)
	ok, err := c.Exists("bob")
	re.NoError(err)
	re.False(ok)

	re.ErrorIs(c.Delete("bob"), model.ErrKeyNotFound)
	re.NoError(c.Delete("alice"))
	re.ErrorIs(c.Delete("alice"), model.ErrKeyNotFound)

	n, err := c.Len()
	re.NoError(err)
	re.Zero(n)

	_, err = c.Put("", document.Null())
	re.ErrorIs(err, model.ErrInvalidName)

	re.Equal([]string{"users:put:alice", "users:put:alice", "users:delete:alice"}, rec.operations())
}

func TestCollection_PutBatch(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	rec := &recorder{}
	r := NewRegistry(rec)
	c, err := r.Create("c")
	re.NoError(err)
	_, err = c.Put("x", document.Int(0))
	re.NoError(err)

	err = c.PutBatch([]Entry{
		{Key: "a", Value: document.Int(1)},
		{Key: "b", Value: document.Int(2)},
		{Key: "a", Value: document.Int(3)},
	})
	re.ErrorIs(err, model.ErrMalformed)
	err = c.PutBatch([]Entry{{Key: "a", Value: document.Int(1)}, {Key: ""}})
	re.ErrorIs(err, model.ErrInvalidName)

	// nothing is changed by a rejected batch
	entries, err := c.List(Bounds{})
	re.NoError(err)
	re.Equal([]string{"x"}, keysOf(entries))

	err = c.PutBatch([]Entry{
		{Key: "a", Value: document.Int(1)},
		{Key: "x", Value: document.Int(2)},
		{Key: "b", Value: document.Int(3)},
	})
	re.NoError(err)
	entries, err = c.List(Bounds{})
	re.NoError(err)
	re.Equal([]string{"x", "a", "b"}, keysOf(entries))
	re.True(document.Equal(document.Int(2), entries[0].Value))

	re.Equal([]string{"c:put:x", "c:put:a", "c:put:x", "c:put:b"}, rec.operations())
}

func TestCollection_Dropped(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	rec := &recorder{}
	r := NewRegistry(rec)
	c, err := r.Create("c")
	re.NoError(err)
	_, err = c.Put("k", document.Int(1))
	re.NoError(err)

	re.NoError(r.Drop("c"))
	re.ErrorIs(r.Drop("c"), model.ErrCollectionNotFound)

	_, err = c.Put("k", document.Int(2))
	re.ErrorIs(err, model.ErrCollectionNotFound)
	_, err = c.Get("k")
	re.ErrorIs(err, model.ErrCollectionNotFound)
	_, err = c.Exists("k")
	re.ErrorIs(err, model.ErrCollectionNotFound)
	re.ErrorIs(c.Delete("k"), model.ErrCollectionNotFound)
	_, err = c.List(Bounds{})
	re.ErrorIs(err, model.ErrCollectionNotFound)
	_, err = c.Len()
	re.ErrorIs(err, model.ErrCollectionNotFound)
	re.ErrorIs(c.PutBatch([]Entry{{Key: "a"}}), model.ErrCollectionNotFound)
	re.ErrorIs(c.Guard(func() { t.Error("guarded function runs on a dropped collection") }), model.ErrCollectionNotFound)

	// a new collection with the same name starts empty
	c2, err := r.Create("c")
	re.NoError(err)
	re.NotEqual(c.ID(), c2.ID())
	n, err := c2.Len()
	re.NoError(err)
	re.Zero(n)

	re.Equal([]string{"c:put:k", "c:drop:"}, rec.operations())
}

func TestRegistry(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	r := NewRegistry(nil)
	re.Zero(r.Count())
	re.Empty(r.Names())

	_, err := r.Create("")
	re.ErrorIs(err, model.ErrInvalidName)

	for _, name := range []string{"b", "a", "C"} {
		_, err := r.Create(name)
		re.NoError(err)
	}
	_, err = r.Create("a")
	re.ErrorIs(err, model.ErrCollectionAlreadyExists)

	// names are case-sensitive
	re.True(r.Exists("C"))
	re.False(r.Exists("c"))
	re.Equal(3, r.Count())
	re.Equal([]string{"C", "a", "b"}, r.Names())

	_, err = r.Get("c")
	re.ErrorIs(err, model.ErrCollectionNotFound)
	a, err := r.Get("a")
	re.NoError(err)
	b, err := r.Get("b")
	re.NoError(err)

	// keys are isolated between collections
	_, err = a.Put("k", document.Int(1))
	re.NoError(err)
	ok, err := b.Exists("k")
	re.NoError(err)
	re.False(ok)

	re.NoError(r.Drop("a"))
	re.False(r.Exists("a"))
	re.Equal([]string{"C", "b"}, r.Names())
}

func TestRegistry_ConcurrentCreate(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	r := NewRegistry(nil)
	const n = 64
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Create("same")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		re.ErrorIs(err, model.ErrCollectionAlreadyExists)
	}
	re.Equal(1, success)
	re.Equal(1, r.Count())
}

func TestCollection_ConcurrentPut(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	r := NewRegistry(nil)
	c, err := r.Create("c")
	re.NoError(err)

	const writers, perWriter = 8, 200
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				key := strconv.Itoa(w) + "-" + strconv.Itoa(i)
				if _, err := c.Put(key, document.Int(int64(i))); err != nil {
					t.Error(err)
					return
				}
				if _, err := c.List(Bounds{From: intPtr(i)}); err != nil {
					t.Error(err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	n, err := c.Len()
	re.NoError(err)
	re.Equal(writers*perWriter, n)
	entries, err := c.List(Bounds{})
	re.NoError(err)
	re.Len(entries, writers*perWriter)
}

func TestRegistry_DropRace(t *testing.T) {
	t.Parallel()
	re := require.New(t)

	r := NewRegistry(nil)
	for round := 0; round < 20; round++ {
		c, err := r.Create("c")
		re.NoError(err)

		var wg sync.WaitGroup
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < 100; i++ {
					key := strconv.Itoa(w) + "-" + strconv.Itoa(i)
					_, err := c.Put(key, document.Int(int64(i)))
					if err != nil && !isNotFound(err) {
						t.Error(err)
						return
					}
					_, err = c.Get(key)
					if err != nil && !isNotFound(err) {
						t.Error(err)
						return
					}
				}
			}(w)
		}
		re.NoError(r.Drop("c"))
		wg.Wait()

		_, err = c.Len()
		re.ErrorIs(err, model.ErrCollectionNotFound)
	}
}

// isNotFound reports whether err is expected for an operation racing with a drop.
func isNotFound(err error) bool {
	return errors.Is(err, model.ErrCollectionNotFound)
}
