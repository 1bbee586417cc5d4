// Package queue provides the outbound packet queue owned by a session.
//
// A Queue accepts items from any number of producers and hands them to one
// consumer at a time. The consumer first acquires a Guard with Lock; the
// Guard gives peek, non-blocking take, blocking take and close access until
// it is released. Holding the Guard across a whole poll cycle serializes
// concurrent polls of the same session.
//
// # Usage
//
//	q := queue.New[packet.Packet](0)
//	_ = q.Push(packet.Message("hello"))
//
//	g, err := q.Lock(ctx)
//	if err != nil {
//	    return err
//	}
//	defer g.Release()
//	p, err := g.Take(ctx)
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package queue
