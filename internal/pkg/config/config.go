// Package config reads typed settings from the service configuration file.
package config

import (
	"io"
	"time"
)

// DurationConfig reads integer settings scaled to a time unit.
type DurationConfig interface {
	// GetMillisecond returns the value for key as milliseconds.
	GetMillisecond(key string) time.Duration

	// GetSecond returns the value for key as seconds.
	GetSecond(key string) time.Duration
}

// Config defines the methods used to read configuration values. Missing keys
// yield the zero value of the requested type.
type Config interface {
	io.Closer
	DurationConfig

	GetBool(key string) bool
	GetInt(key string) int
	GetInt32(key string) int32
	GetUint(key string) uint
	GetInt64(key string) int64
	GetFloat64(key string) float64
	GetString(key string) string

	// GetArray returns the value for key as a string slice. Both a YAML
	// sequence and a comma separated string are accepted; empty items are
	// dropped.
	GetArray(key string) []string
}
