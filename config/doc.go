// Package config loads blobgate configuration.
//
// Values come from cmd/<service>/config.yml, then a .env file, then the
// process environment, in increasing precedence. Environment names map onto
// nested keys by splitting on underscores, so STORAGE_CONNECTION_STRING sets
// storage.connection_string.
//
// # Usage
//
//	var cfg AppConfig
//	if err := config.LoadConfig("blobgate", &cfg); err != nil { ... }
package config
