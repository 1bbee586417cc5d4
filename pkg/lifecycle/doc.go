// Package lifecycle provides the start/stop state machine and worker
// tracking shared by long-running components.
//
// # Usage
//
//	manager := lifecycle.NewManager(logger)
//
//	if err := manager.TransitionTo(lifecycle.StateStarting, "start"); err != nil {
//	    return err
//	}
//
//	manager.AddWorker()
//	go func() {
//	    defer manager.WorkerDone()
//	    // ...
//	}()
//
//	// Graceful shutdown
//	if err := manager.Wait(ctx); err != nil {
//	    return err
//	}
//
// # State Machine
//
// Valid state transitions:
//   - Stopped -> Starting
//   - Starting -> Running, Failed
//   - Running -> Stopping, Failed
//   - Stopping -> Stopped, Failed
//   - Failed -> Starting
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package lifecycle
