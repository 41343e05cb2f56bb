package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueue_FIFO(t *testing.T) {
	q := NewInMemoryQueue(4)

	require.NoError(t, q.Enqueue("a"))
	require.NoError(t, q.Enqueue("b"))
	assert.Equal(t, 2, q.Size())

	item, err := q.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, "a", item)

	require.NoError(t, q.Enqueue("c"))
	all, err := q.ReadAllMessages()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"b", "c"}, all)
	assert.Equal(t, 0, q.Size())
}

func TestInMemoryQueue_Bounds(t *testing.T) {
	q := NewInMemoryQueue(1)

	_, err := q.Dequeue()
	assert.Error(t, err)

	require.NoError(t, q.Enqueue(1))
	assert.Error(t, q.Enqueue(2))

	require.NoError(t, q.ClearQueue())
	assert.Equal(t, 0, q.Size())

	all, err := q.ReadAllMessages()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestInMemoryQueue_DefaultSize(t *testing.T) {
	q := NewInMemoryQueue(0)
	assert.Equal(t, DefaultQueueBufferSize, cap(q.ch))
}

func TestInMemoryQueue_ConcurrentProducers(t *testing.T) {
	q := NewInMemoryQueue(1000)

	var wg sync.WaitGroup
	for p := 0; p < 10; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				assert.NoError(t, q.Enqueue(i))
			}
		}()
	}
	wg.Wait()

	all, err := q.ReadAllMessages()
	require.NoError(t, err)
	assert.Len(t, all, 1000)
}
