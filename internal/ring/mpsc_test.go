package ring

import (
	"runtime"
	"sync"
	"testing"
)

func TestMPSCSingleProducerFIFO(t *testing.T) {
	r := NewMPSC[int](8)
	for i := 0; i < 8; i++ {
		if !r.Push(i) {
			t.Fatalf("Push(%d) failed below capacity", i)
		}
	}
	if r.Push(99) {
		t.Fatalf("Push into a full ring succeeded")
	}
	for i := 0; i < 8; i++ {
		v, ok := r.Pop()
		if !ok || v != i {
			t.Fatalf("Pop = %d, %v, want %d", v, ok, i)
		}
	}
	if _, ok := r.Pop(); ok {
		t.Fatalf("Pop on empty ring returned an item")
	}
}

// TestMPSCNoLossNoDuplication pushes disjoint item sets from several
// producers and checks the consumer sees exactly the union.
func TestMPSCNoLossNoDuplication(t *testing.T) {
	const (
		producers   = 4
		perProducer = 50000
	)
	r := NewMPSC[uint64](256)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; {
				item := uint64(p)*perProducer + uint64(i)
				if r.Push(item) {
					i++
				}
			}
		}(p)
	}

	seen := make([]bool, producers*perProducer)
	for count := 0; count < producers*perProducer; {
		v, ok := r.Pop()
		if !ok {
			runtime.Gosched()
			continue
		}
		if seen[v] {
			t.Fatalf("item %d consumed twice", v)
		}
		seen[v] = true
		count++
	}
	wg.Wait()

	if _, ok := r.Pop(); ok {
		t.Fatalf("ring held items beyond the pushed total")
	}
	for i, s := range seen {
		if !s {
			t.Fatalf("item %d lost", i)
		}
	}
}

func TestMPSCWraparound(t *testing.T) {
	r := NewMPSC[int](4)
	next := 0
	for round := 0; round < 64; round++ {
		for i := 0; i < 4; i++ {
			if !r.Push(round*4 + i) {
				t.Fatalf("push failed on round %d", round)
			}
		}
		for i := 0; i < 4; i++ {
			v, ok := r.Pop()
			if !ok || v != next {
				t.Fatalf("pop = %d, %v, want %d", v, ok, next)
			}
			next++
		}
	}
}
