// Package dynamo provides the primitives shared by the simulation packages.
//
// The package defines the error taxonomy and the concurrency building blocks
// used by the frame loop:
//
//   - [Pool]: fixed-size worker pool with a blocking parallel-for
//   - [SimulationError]: wraps a failure with frame, phase and entity context
//   - sentinel errors such as [ErrNonFinite] and [ErrWorkerFault]
//
// # Example
//
//	pool := dynamo.NewPool(runtime.NumCPU())
//	err := pool.For(len(bodies), func(i int) error {
//	    return bodies[i].Update(bodies, env, dt)
//	})
//
// # Thread Safety
//
// A Pool may be shared by several goroutines; each For call is an independent
// parallel region and returns only after every task it started has finished.
package dynamo
