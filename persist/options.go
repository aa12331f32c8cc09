package persist

import (
	"log/slog"
	"time"
)

// MigrateFunc converts a stored state payload written under an older (or
// newer) version into the currently expected shape. It runs only when the
// stored version differs from the configured one.
type MigrateFunc func(state []byte, version int) ([]byte, error)

// MergeFunc folds a persisted payload onto the current state. The default
// merge deep-copies the current state and unmarshals the payload over it,
// so persisted keys win and unpersisted keys survive.
type MergeFunc[T any] func(persisted []byte, current T) (T, error)

// Options holds the resolved configuration of a persistence middleware.
type Options[T any] struct {
	// Name is the storage key the record lives under.
	Name string
	// Storage is the key/value adapter. Defaults to in-memory storage.
	Storage Storage
	// Codec is the record envelope format. Defaults to JSON.
	Codec Codec
	// Version is written with every record and checked on hydration.
	Version int
	// Debounce is the write-collapse window. Zero writes immediately.
	Debounce time.Duration
	// SkipHydration suppresses the automatic hydration pass; callers
	// trigger Rehydrate manually (server-rendered flows).
	SkipHydration bool
	// Migrate runs when the stored version differs from Version.
	Migrate MigrateFunc
	// Partialize projects the state to the persisted subset. Defaults to
	// the identity projection.
	Partialize func(T) any
	// Merge folds the persisted payload onto current state.
	Merge MergeFunc[T]
	// OnRehydrate is invoked with the pre-hydration state when a
	// hydration pass begins; the returned callback receives the
	// post-hydration state and any storage or migration error. This is
	// the only channel such errors surface on.
	OnRehydrate func(T) func(T, error)
	// Logger receives storage-fault and lifecycle records. Defaults to a
	// discard logger.
	Logger *slog.Logger
}

// Option configures a persistence middleware.
type Option[T any] func(*Options[T])

// WithStorage sets the storage adapter.
func WithStorage[T any](s Storage) Option[T] {
	return func(o *Options[T]) {
		o.Storage = s
	}
}

// WithCodec sets the record envelope codec.
func WithCodec[T any](c Codec) Option[T] {
	return func(o *Options[T]) {
		o.Codec = c
	}
}

// WithVersion sets the record version.
func WithVersion[T any](v int) Option[T] {
	return func(o *Options[T]) {
		o.Version = v
	}
}

// WithDebounce sets the write-collapse window.
func WithDebounce[T any](d time.Duration) Option[T] {
	return func(o *Options[T]) {
		o.Debounce = d
	}
}

// WithSkipHydration defers hydration until Rehydrate is called.
func WithSkipHydration[T any]() Option[T] {
	return func(o *Options[T]) {
		o.SkipHydration = true
	}
}

// WithMigrate sets the version migration function.
func WithMigrate[T any](fn MigrateFunc) Option[T] {
	return func(o *Options[T]) {
		o.Migrate = fn
	}
}

// WithPartialize sets the persisted-subset projection.
func WithPartialize[T any](fn func(T) any) Option[T] {
	return func(o *Options[T]) {
		o.Partialize = fn
	}
}

// WithMerge overrides how persisted payloads fold onto current state.
func WithMerge[T any](fn MergeFunc[T]) Option[T] {
	return func(o *Options[T]) {
		o.Merge = fn
	}
}

// WithOnRehydrate registers the hydration completion callback factory.
func WithOnRehydrate[T any](fn func(T) func(T, error)) Option[T] {
	return func(o *Options[T]) {
		o.OnRehydrate = fn
	}
}

// WithLogger sets the logger.
func WithLogger[T any](log *slog.Logger) Option[T] {
	return func(o *Options[T]) {
		o.Logger = log
	}
}
