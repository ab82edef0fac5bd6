// Package layout adapts force algorithms to hosts that drive them frame by
// frame and persist their state between frames.
//
// A host never keeps an algorithm alive across frames. Each [Session.Frame]
// loads the persisted state, rebuilds the algorithm from it, advances one
// step and saves the new state:
//
//	sess := layout.NewSession(layout.FruchtermanReingold, "main", store.NewMemory(), layout.SessionOptions{})
//	for range frames {
//	    sess.Frame(ctx, g, view)
//	}
//
// Sessions are keyed by strategy and ID, so several views of the same or
// different graphs keep independent states in one store. [Controller] is the
// strategy-erased form used where the strategy is chosen at runtime.
package layout
