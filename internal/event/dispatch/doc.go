// Package dispatch holds the execution machinery behind the event bus.
//
// Guard runs one listener call and turns a panic into an Outcome. Pool is a
// bounded worker pool for asynchronous fires: each task is one complete
// fire, so the listeners of a single event still run in order on one
// worker.
//
//	pool := dispatch.NewPool(dispatch.WithWorkerCount(4))
//	if err := pool.Start(); err != nil {
//	    return err
//	}
//	defer pool.Stop(ctx)
//
//	_ = pool.Submit(func() {
//	    out := dispatch.Guard(ctx, listener)
//	    if !out.OK() {
//	        // report
//	    }
//	})
package dispatch
