// Package executor provides a fixed-size worker pool that implements
// task.Scheduler. Installing a pool on a task tree bounds the number of
// goroutines the tree uses without changing its semantics: a full queue
// or a shut-down pool falls back to a fresh goroutine, so every launched
// task still runs and every tree still reaches a terminal state.
//
//	pool, err := executor.New(4, 32)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer func() { <-pool.Shutdown() }()
//
//	h := task.Launch(ctx, work, task.WithScheduler(pool))
package executor
