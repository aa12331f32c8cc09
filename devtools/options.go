package devtools

import "log/slog"

// Options holds the resolved configuration of a devtools middleware.
type Options[T any] struct {
	// Connector opens the connection to the inspection tool. With no
	// connector the middleware is inert and the store behaves as if it
	// were absent.
	Connector Connector
	// Name identifies this store instance to the tool.
	Name string
	// AnonymousLabel is sent for mutations outside a Do scope.
	AnonymousLabel string
	// Sanitize projects state before it is serialized for the tool.
	// Defaults to the identity projection.
	Sanitize func(T) any
	// Disabled turns every operation into a no-op even when a connector
	// is configured.
	Disabled bool
	// Logger receives connection lifecycle and fault records. Defaults
	// to a discard logger.
	Logger *slog.Logger
}

// Option configures a devtools middleware.
type Option[T any] func(*Options[T])

// WithConnector sets the connection opener.
func WithConnector[T any](c Connector) Option[T] {
	return func(o *Options[T]) {
		o.Connector = c
	}
}

// WithName identifies the store instance to the tool.
func WithName[T any](name string) Option[T] {
	return func(o *Options[T]) {
		o.Name = name
	}
}

// WithAnonymousLabel overrides the label for unlabeled mutations.
func WithAnonymousLabel[T any](label string) Option[T] {
	return func(o *Options[T]) {
		o.AnonymousLabel = label
	}
}

// WithSanitize projects state before serialization.
func WithSanitize[T any](fn func(T) any) Option[T] {
	return func(o *Options[T]) {
		o.Sanitize = fn
	}
}

// Disabled turns the middleware off without unwiring it.
func Disabled[T any]() Option[T] {
	return func(o *Options[T]) {
		o.Disabled = true
	}
}

// WithLogger sets the logger.
func WithLogger[T any](log *slog.Logger) Option[T] {
	return func(o *Options[T]) {
		o.Logger = log
	}
}
