// Package physics provides the entities advanced by the frame loop.
//
// Two homogeneous kinds of entity exist:
//
//   - [Body]: a set of [Vertex] mass points joined by springs along the edges
//     of its triangle faces. Static bodies never integrate and act as
//     immovable [RectPrism] collision geometry.
//   - [Particle]: a point mass with a [Polarity]. Like polarities repel and
//     opposite polarities attract under a [ForceLaw].
//
// Both integrate with semi-implicit Euler: velocity first, then position
// using the new velocity.
//
// # Collisions
//
// A [Resolver] removes particle overlap after integration, visiting pairs in
// ascending index order so that a fixed input always resolves the same way:
//
//	sys.Step(dt)
//	res := resolver.ResolveCollision(sys.Particles)
//	if res.Penetration > resolver.Tolerance {
//	    // iteration budget exhausted
//	}
package physics
