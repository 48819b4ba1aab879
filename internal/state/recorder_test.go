package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(r *Recorder, points ...Point) {
	r.Begin(points[0])
	for _, p := range points[1:] {
		r.Extend(p)
	}
	r.End()
}

func TestRecorderGesturesBecomePaths(t *testing.T) {
	r := NewRecorder()
	a := []Point{{10, 10}, {12, 11}, {15, 13}}
	b := []Point{{50, 50}, {51, 52}}

	record(r, a...)
	record(r, b...)

	paths := r.Paths()
	require.Len(t, paths, 2)
	assert.Equal(t, a, paths[0].Points)
	assert.Equal(t, b, paths[1].Points)
	assert.NotEqual(t, paths[0].ID, paths[1].ID)

	_, ok := r.Undo()
	require.True(t, ok)
	paths = r.Paths()
	require.Len(t, paths, 1)
	assert.Equal(t, a, paths[0].Points)
}

func TestRecorderUndoKeepsEarlierPaths(t *testing.T) {
	r := NewRecorder()
	for i := 0; i < 5; i++ {
		f := float64(i)
		record(r, Point{f, f}, Point{f + 1, f + 2}, Point{f + 3, f})
	}
	before := r.Paths()

	undone, ok := r.Undo()
	require.True(t, ok)
	assert.Equal(t, before[4], undone)
	assert.Equal(t, before[:4], r.Paths())
}

func TestRecorderUndoEmpty(t *testing.T) {
	r := NewRecorder()
	_, ok := r.Undo()
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRecorderExtend(t *testing.T) {
	r := NewRecorder()

	_, ok := r.Extend(Point{1, 1})
	assert.False(t, ok, "extend without an open path starts one")
	assert.True(t, r.Open())

	prev, ok := r.Extend(Point{2, 3})
	require.True(t, ok)
	assert.Equal(t, Point{1, 1}, prev)

	current, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, []Point{{1, 1}, {2, 3}}, current.Points)
	assert.Equal(t, 0, r.Len(), "open path is not part of the collection")
}

func TestRecorderEndWithoutPath(t *testing.T) {
	r := NewRecorder()
	_, ok := r.End()
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRecorderBeginFinalizesOpenPath(t *testing.T) {
	r := NewRecorder()
	r.Begin(Point{1, 1})
	r.Begin(Point{5, 5})
	r.End()

	paths := r.Paths()
	require.Len(t, paths, 2)
	assert.Equal(t, []Point{{1, 1}}, paths[0].Points)
	assert.Equal(t, []Point{{5, 5}}, paths[1].Points)
}

func TestRecorderPathsAreCopies(t *testing.T) {
	r := NewRecorder()
	record(r, Point{1, 1}, Point{2, 2})

	paths := r.Paths()
	paths[0].Points[0] = Point{99, 99}
	assert.Equal(t, Point{1, 1}, r.Paths()[0].Points[0])
}

func TestRecorderClear(t *testing.T) {
	r := NewRecorder()
	record(r, Point{1, 1}, Point{2, 2})
	r.Begin(Point{3, 3})

	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.False(t, r.Open())
}

func TestRecorderConcurrentUse(t *testing.T) {
	r := NewRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = r.Paths()
				_ = r.Len()
			}
		}()
	}
	for i := 0; i < 20; i++ {
		r.Begin(Point{X: float64(i)})
		r.Extend(Point{X: float64(i), Y: 1})
		r.End()
	}
	wg.Wait()
	assert.Equal(t, 20, r.Len())
}

func TestSequence(t *testing.T) {
	var s Sequence
	first := s.Next()
	assert.True(t, s.Current(first))

	second := s.Next()
	assert.False(t, s.Current(first))
	assert.True(t, s.Current(second))
	assert.Equal(t, second, s.Last())
	assert.True(t, s.Current(s.Last()), "Last does not issue a number")
}

func TestMicrographComplete(t *testing.T) {
	assert.True(t, Micrograph{Index: CompleteIndex, Ref: "static/complete.png"}.Complete())
	assert.False(t, Micrograph{Index: 0}.Complete())
}
