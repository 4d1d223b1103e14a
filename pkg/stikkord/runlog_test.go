package stikkord

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLogNewestFirst(t *testing.T) {
	l := NewRunLog(20)
	for _, f := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		l.Add(Outcome{File: f, Success: true})
	}

	snap := l.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "c.jpg", snap[0].File)
	assert.Equal(t, "b.jpg", snap[1].File)
	assert.Equal(t, "a.jpg", snap[2].File)
}

func TestRunLogEvictsOldest(t *testing.T) {
	l := NewRunLog(20)
	for i := 0; i < 25; i++ {
		l.Add(Outcome{File: fmt.Sprintf("f%02d.jpg", i)})
	}

	assert.Equal(t, 20, l.Len())
	snap := l.Snapshot()
	assert.Equal(t, "f24.jpg", snap[0].File)
	assert.Equal(t, "f05.jpg", snap[len(snap)-1].File)
	for _, o := range snap {
		assert.NotEqual(t, "f00.jpg", o.File)
		assert.NotEqual(t, "f04.jpg", o.File)
	}
}

func TestRunLogDefaultSize(t *testing.T) {
	l := NewRunLog(0)
	for i := 0; i < RunLogSize+5; i++ {
		l.Add(Outcome{File: fmt.Sprintf("%d.jpg", i)})
	}
	assert.Equal(t, RunLogSize, l.Len())
}

func TestRunLogConcurrentAdds(t *testing.T) {
	l := NewRunLog(20)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Add(Outcome{File: fmt.Sprintf("%d-%d.jpg", n, j)})
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 20, l.Len())
}
