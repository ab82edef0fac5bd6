// Package force implements the Fruchterman–Reingold force-directed layout
// engine and its extension mechanism.
//
// # Step
//
// One call to Step advances the simulation by a single iteration:
//
//  1. Snapshot the node indices and positions of the graph.
//  2. Derive the characteristic length k from the viewport area and the
//     node count ([PrepareConstants]).
//  3. Accumulate pairwise repulsion ([ComputeRepulsion]) and edge
//     attraction ([ComputeAttraction]) into a displacement buffer.
//  4. Let every enabled extra force add its contribution ([Extras]).
//  5. Integrate: scale by dt, clamp to max_step, damp, and write the new
//     positions back ([ApplyDisplacements]).
//  6. Record the mean applied move as the convergence signal.
//
// A step has no failure path. Empty graphs, paused states and degenerate
// viewports make it a silent no-op.
//
// # Extra Forces
//
// Auxiliary forces implement [Plugin] and are composed at compile time with
// [Chain] and [None]:
//
//	type MyExtras = force.Chain[force.Extra[force.CenterGravity, force.CenterGravityParams], force.None]
//	alg := force.NewWithExtras(force.DefaultExtrasState[MyExtras]())
//
// The composition is fixed by the type. Only each entry's Enabled flag and
// parameters change at runtime.
//
// # State
//
// [State] and [ExtrasState] are plain JSON records. Hosts persist them
// between frames and rebuild the algorithm from them, so an algorithm value
// holds nothing that cannot be reconstructed except its scratch buffers.
package force
