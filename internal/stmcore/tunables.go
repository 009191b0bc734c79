package stmcore

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// defaultMaxHistory matches the reference TierAlloc/MVOSTM depth of 8
// version nodes retained per cell (spec.md §9 Open Questions).
const defaultMaxHistory = 8

// defaultStripeCount is the OCC striped lock table's default size.
const defaultStripeCount = 4096

// Options carries the engine-level tunables: MAX_HISTORY (MVCC version
// chain depth) and STRIPE_COUNT (OCC lock table size).
type Options struct {
	MaxHistory  int `toml:"max_history"`
	StripeCount int `toml:"stripe_count"`
}

// DefaultOptions returns the reference implementation's hardcoded values.
func DefaultOptions() Options {
	return Options{MaxHistory: defaultMaxHistory, StripeCount: defaultStripeCount}
}

// LoadOptions decodes path as TOML over DefaultOptions.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	if _, err := toml.DecodeFile(path, &opts); err != nil {
		return Options{}, errors.Wrapf(err, "stmcore: load options from %s", path)
	}
	if opts.MaxHistory <= 0 {
		return Options{}, errors.Errorf("stmcore: max_history must be positive, got %d", opts.MaxHistory)
	}
	if opts.StripeCount <= 0 {
		return Options{}, errors.Errorf("stmcore: stripe_count must be positive, got %d", opts.StripeCount)
	}
	return opts, nil
}
