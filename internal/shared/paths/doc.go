// Package paths provides the on-disk layout of the backend's durable state.
//
// Everything the service writes lives under one storage root (STORAGE_DIR):
//
//	<root>/
//	  ├── setup.toml   (first-run wizard flag)
//	  └── tmp/         (scratch space for atomic writes)
//
// # Usage
//
//	layout := paths.New(cfg.Storage.Dir)
//	if err := layout.Ensure(); err != nil { ... }
//	file := layout.SetupFile()
package paths
