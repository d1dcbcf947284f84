package sim

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpanCoversRangeWithoutOverlap(t *testing.T) {
	for _, tc := range []struct{ tasks, n int }{{1, 10}, {4, 10}, {4, 3}, {3, 9}, {8, 1}, {4, 0}} {
		seen := make([]int, tc.n)
		for task := 0; task < tc.tasks; task++ {
			lo, hi := span(task, tc.tasks, tc.n)
			assert.LessOrEqual(t, lo, hi)
			for i := lo; i < hi; i++ {
				seen[i]++
			}
		}
		for i, c := range seen {
			assert.Equal(t, 1, c, "tasks=%d n=%d index %d", tc.tasks, tc.n, i)
		}
	}
}

func TestParallelForVisitsEveryIndexOnce(t *testing.T) {
	counts := make([]int32, 1000)
	parallelFor(7, len(counts), func(task, lo, hi int) {
		for i := lo; i < hi; i++ {
			atomic.AddInt32(&counts[i], 1)
		}
	})
	for i, c := range counts {
		assert.Equal(t, int32(1), c, "index %d", i)
	}
}

func TestParallelForUsesAtMostNTasks(t *testing.T) {
	var maxTask atomic.Int32
	parallelFor(8, 3, func(task, lo, hi int) {
		for {
			cur := maxTask.Load()
			if int32(task) <= cur || maxTask.CompareAndSwap(cur, int32(task)) {
				return
			}
		}
	})
	assert.Equal(t, int32(2), maxTask.Load())
}

func TestRunTasksRunsEachTaskOnce(t *testing.T) {
	var calls atomic.Int32
	runTasks(5, func(task int) { calls.Add(1) })
	assert.Equal(t, int32(5), calls.Load())

	runTasks(0, func(task int) { t.Fatal("no tasks expected") })
}
