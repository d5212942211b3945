// Package config handles application configuration loading and validation.
//
// Configuration is loaded from a YAML file and validated using struct tags.
// The feed list drives the collection cycle; storage and fetch settings
// have working defaults so a minimal config only needs feeds.
package config
