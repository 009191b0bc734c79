package stmcore

import "errors"

// errRetry and errCommitAborted are internal control-flow sentinels per
// spec.md §7: "Retry and CommitAborted are never user-visible." They are
// deliberately unexported; callers outside this package compare against
// them only through Retry/CommitAborted/IsRetry/IsCommitAborted, never by
// constructing their own equal value, and stm.Atomically strips both
// before anything reaches a user-supplied closure's return path.
var (
	errRetry         = errors.New("stmcore: no visible version, retry")
	errCommitAborted = errors.New("stmcore: commit aborted")
)

// Retry returns the sentinel a Cell[T].ReadUnder implementation returns
// when no version satisfies the transaction's read snapshot (spec.md
// §4.6's "no such version exists, raise Retry").
func Retry() error { return errRetry }

// CommitAborted returns the sentinel raised when validation fails or a
// foreign Wound-Wait flips the descriptor's status out from under the
// committing goroutine.
func CommitAborted() error { return errCommitAborted }

// IsRetry reports whether err is (or wraps) the Retry sentinel.
func IsRetry(err error) bool { return errors.Is(err, errRetry) }

// IsCommitAborted reports whether err is (or wraps) the CommitAborted
// sentinel.
func IsCommitAborted(err error) bool { return errors.Is(err, errCommitAborted) }
