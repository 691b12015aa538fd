package history

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingEvictsOldest(t *testing.T) {
	r := NewRing[int](3)
	for i := 1; i <= 5; i++ {
		r.Add(i)
	}
	assert.Equal(t, []int{3, 4, 5}, r.Snapshot())
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 3, r.Cap())
}

func TestRingPartial(t *testing.T) {
	r := NewRing[string](0)
	assert.Empty(t, r.Snapshot())
	r.Add("a")
	r.Add("b")
	assert.Equal(t, []string{"b"}, r.Snapshot())
}

func TestRingConcurrentAdd(t *testing.T) {
	r := NewRing[int](500)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Add(j)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 500, r.Len())
}
