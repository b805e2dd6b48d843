// Package config loads, validates, and normalizes scribe's TOML
// configuration. Every policy constant the workflow depends on (size
// threshold, segment duration, poll interval, retry/backoff, merge gap,
// fan-out bound) lives here rather than in code.
package config
