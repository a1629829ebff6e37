// Package runtime wires storage, config, and the repository into a
// single-node canvass instance. It exposes Open/Close and basic health
// checks used by higher-level services.
//
// Example:
//
//	cfg := config.Default()
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: cfg})
//	defer rt.Close()
//	// Health
//	_ = rt.CheckHealth(context.Background())
//	// Data access
//	c, _ := rt.Repo().FindClient("some-id")
//	_ = c
package runtime
