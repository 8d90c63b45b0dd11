// Package config provides configuration loading, merging, and validation
// facilities for the sync engine and the reference server.
//
// Configuration is assembled from multiple sources in the following priority
// order (later sources override earlier non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON config file
//
// The main entry points are [GetServerConfig] for the reference server and
// [GetEngineConfig] for the client-side sync engine.
package config
