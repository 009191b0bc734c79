// Package castm ties together this module's tunables into one
// TOML-loadable surface: the allocator's chunk/cache sizing plus the STM
// core's history/stripe sizing, alongside an ambient log-level knob
// neither inner package needs to know about.
package castm

import (
	"github.com/BurntSushi/toml"
	"github.com/Pam-La/castm/internal/alloc"
	"github.com/Pam-La/castm/internal/stmcore"
	"github.com/pkg/errors"
)

// Options is the top-level, TOML-loadable configuration surface: the five
// tunables spec.md §6 names (CHUNK, MAX_CENTRAL_CACHE,
// MAX_POOL_RESCUE_CHECKS, MAX_HISTORY, STRIPE_COUNT), split across the two
// inner Options structs that actually consume them, plus LogLevel for the
// ambient logging every package routes through pingcap/log's global
// logger.
type Options struct {
	Alloc    alloc.Options   `toml:"alloc"`
	STMCore  stmcore.Options `toml:"stmcore"`
	LogLevel string          `toml:"log_level"`
}

// DefaultOptions returns every inner package's own defaults plus "info"
// for LogLevel.
func DefaultOptions() Options {
	return Options{
		Alloc:    alloc.DefaultOptions(),
		STMCore:  stmcore.DefaultOptions(),
		LogLevel: "info",
	}
}

// LoadOptions decodes path as TOML over DefaultOptions, so a file that
// only overrides one field (or one inner table) leaves the rest at their
// defaults.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	if _, err := toml.DecodeFile(path, &opts); err != nil {
		return Options{}, errors.Wrapf(err, "castm: load options from %s", path)
	}
	if opts.Alloc.ChunkBytes <= 0 || opts.Alloc.ChunkBytes&(opts.Alloc.ChunkBytes-1) != 0 {
		return Options{}, errors.Errorf("castm: alloc.chunk_bytes %d is not a positive power of two", opts.Alloc.ChunkBytes)
	}
	if opts.STMCore.MaxHistory <= 0 || opts.STMCore.StripeCount <= 0 {
		return Options{}, errors.New("castm: stmcore.max_history and stmcore.stripe_count must be positive")
	}
	return opts, nil
}
