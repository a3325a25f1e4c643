package symidx

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"main/internal/schema"
)

func TestInsertFind(t *testing.T) {
	x := New[int](16)

	a, b := 1, 2
	if !x.Insert(schema.NewSymbolKey("AAPL"), &a) {
		t.Fatalf("insert failed")
	}
	if !x.Insert(schema.NewSymbolKey("MSFT"), &b) {
		t.Fatalf("insert failed")
	}

	got, ok := x.Find(schema.NewSymbolKey("AAPL"))
	if !ok || got != &a {
		t.Fatalf("Find(AAPL) = %v, %v", got, ok)
	}
	if _, ok := x.Find(schema.NewSymbolKey("GOOGL")); ok {
		t.Fatalf("Find on absent key returned a value")
	}
	if x.Len() != 2 {
		t.Fatalf("Len = %d, want 2", x.Len())
	}
}

func TestInsertUpsertsInPlace(t *testing.T) {
	x := New[int](8)
	key := schema.NewSymbolKey("AAPL")

	first, second := 1, 2
	x.Insert(key, &first)
	x.Insert(key, &second)

	got, ok := x.Find(key)
	if !ok || got != &second {
		t.Fatalf("Find after upsert = %v, want pointer to second value", got)
	}
	if x.Len() != 1 {
		t.Fatalf("upsert must not grow the key count, Len = %d", x.Len())
	}
}

func TestInsertFull(t *testing.T) {
	x := New[int](8)
	vals := make([]int, 9)
	for i := 0; i < 8; i++ {
		if !x.Insert(schema.NewSymbolKey(fmt.Sprintf("SYM%d", i)), &vals[i]) {
			t.Fatalf("insert %d failed before the table was full", i)
		}
	}
	if x.Insert(schema.NewSymbolKey("OVERFLOW"), &vals[8]) {
		t.Fatalf("insert into a full table should fail")
	}
	// existing entries must survive the failed insert
	for i := 0; i < 8; i++ {
		got, ok := x.Find(schema.NewSymbolKey(fmt.Sprintf("SYM%d", i)))
		if !ok || got != &vals[i] {
			t.Fatalf("entry %d corrupted after full insert", i)
		}
	}
}

func TestGetOrInsertRace(t *testing.T) {
	const workers = 8
	x := New[int](16)
	key := schema.NewSymbolKey("BTCUSDT")

	var wg sync.WaitGroup
	var inserts atomic.Int64
	results := make([]*int, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			v := new(int)
			actual, inserted := x.GetOrInsert(key, v)
			if inserted {
				inserts.Add(1)
			}
			results[w] = actual
		}(w)
	}
	wg.Wait()

	if inserts.Load() != 1 {
		t.Fatalf("exactly one insert must win, got %d", inserts.Load())
	}
	for w := 1; w < workers; w++ {
		if results[w] != results[0] {
			t.Fatalf("racing GetOrInsert calls converged on different values")
		}
	}
}

func TestConcurrentInsertFind(t *testing.T) {
	const (
		writers       = 4
		keysPerWriter = 64
	)
	x := New[uint64](1024)

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < keysPerWriter; i++ {
				v := new(uint64)
				*v = uint64(w*keysPerWriter + i)
				key := schema.NewSymbolKey(fmt.Sprintf("W%dK%d", w, i))
				if !x.Insert(key, v) {
					t.Errorf("insert %d/%d failed", w, i)
					return
				}
			}
		}(w)
	}

	// concurrent readers: a returned value must always be fully formed,
	// i.e. match the key it was inserted under
	stop := make(chan struct{})
	var readers sync.WaitGroup
	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				for w := 0; w < writers; w++ {
					for i := 0; i < keysPerWriter; i++ {
						key := schema.NewSymbolKey(fmt.Sprintf("W%dK%d", w, i))
						if v, ok := x.Find(key); ok && *v != uint64(w*keysPerWriter+i) {
							t.Errorf("Find(%s) observed a half-built entry: %d", key, *v)
							return
						}
					}
				}
			}
		}()
	}

	wg.Wait()
	close(stop)
	readers.Wait()

	if x.Len() != writers*keysPerWriter {
		t.Fatalf("Len = %d, want %d", x.Len(), writers*keysPerWriter)
	}
	for w := 0; w < writers; w++ {
		for i := 0; i < keysPerWriter; i++ {
			key := schema.NewSymbolKey(fmt.Sprintf("W%dK%d", w, i))
			v, ok := x.Find(key)
			if !ok || *v != uint64(w*keysPerWriter+i) {
				t.Fatalf("Find(%s) after quiescence = %v, %v", key, v, ok)
			}
		}
	}
}
