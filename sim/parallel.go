package sim

import (
	"golang.org/x/sync/errgroup"
)

// span returns the contiguous chunk of [0, n) owned by task out of tasks.
// Chunks are fixed for a given n and task count, so partitioning is
// reproducible across runs.
func span(task, tasks, n int) (lo, hi int) {
	if tasks <= 0 || n <= 0 {
		return 0, 0
	}
	chunk := (n + tasks - 1) / tasks
	lo = min(task*chunk, n)
	hi = min(lo+chunk, n)
	return lo, hi
}

// runTasks runs fn once per task id on its own goroutine and waits for all
// of them. A single task runs inline.
func runTasks(tasks int, fn func(task int)) {
	if tasks <= 1 {
		if tasks == 1 {
			fn(0)
		}
		return
	}
	var g errgroup.Group
	for t := 0; t < tasks; t++ {
		g.Go(func() error {
			fn(t)
			return nil
		})
	}
	// tasks only mutate their own partition and cannot fail
	_ = g.Wait()
}

// parallelFor runs fn over the task-owned chunks of [0, n).
func parallelFor(tasks, n int, fn func(task, lo, hi int)) {
	if n <= 0 {
		return
	}
	runTasks(min(tasks, n), func(task int) {
		lo, hi := span(task, min(tasks, n), n)
		if lo < hi {
			fn(task, lo, hi)
		}
	})
}
