// Package config provides configuration loading for Featsync.
//
// Configuration is read from a YAML file with three layers of precedence:
//
//  1. Hardcoded defaults
//  2. YAML file values
//  3. FEATSYNC_* environment variables
//
// The loaded Config is validated before use; an invalid configuration
// prevents startup rather than failing later at runtime.
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path})
package config
