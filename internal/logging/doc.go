// Package logging constructs the slog loggers used across scribe and defines
// the shared structured-field conventions (component, execution, stage).
package logging
