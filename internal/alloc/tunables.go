package alloc

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Options carries the allocator's tunable parameters, loadable from an
// optional TOML file with the same defaults as DefaultChunkSize /
// DefaultMaxCentralCache / DefaultMaxPoolRescueChecks when unset.
type Options struct {
	ChunkBytes          int `toml:"chunk_bytes"`
	MaxCentralCache     int `toml:"max_central_cache"`
	MaxPoolRescueChecks int `toml:"max_pool_rescue_checks"`
}

// DefaultOptions returns the reference implementation's hardcoded defaults.
func DefaultOptions() Options {
	return Options{
		ChunkBytes:          DefaultChunkSize,
		MaxCentralCache:     DefaultMaxCentralCache,
		MaxPoolRescueChecks: DefaultMaxPoolRescueChecks,
	}
}

// LoadOptions decodes path as TOML over DefaultOptions, so a file that only
// overrides one field leaves the rest at their defaults.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	if _, err := toml.DecodeFile(path, &opts); err != nil {
		return Options{}, errors.Wrapf(err, "alloc: load options from %s", path)
	}
	if opts.ChunkBytes <= 0 || opts.ChunkBytes&(opts.ChunkBytes-1) != 0 {
		return Options{}, errors.Errorf("alloc: chunk_bytes %d is not a positive power of two", opts.ChunkBytes)
	}
	return opts, nil
}

// NewPageSourceFromOptions builds a PageSource sized per opts.
func NewPageSourceFromOptions(opts Options) *PageSource {
	return NewPageSource(opts.ChunkBytes, opts.MaxCentralCache)
}
