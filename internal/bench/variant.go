package bench

import (
	"github.com/Pam-La/castm/internal/alloc"
	"github.com/Pam-La/castm/internal/mvccstm"
	"github.com/Pam-La/castm/internal/occstm"
	"github.com/Pam-La/castm/internal/stmcore"
	"github.com/Pam-La/castm/internal/wwstm"
)

// Kind names one of the three transaction engines a Variant wraps.
type Kind int

const (
	KindOCC Kind = iota
	KindMVCC
	KindWW
)

func (k Kind) String() string {
	switch k {
	case KindOCC:
		return "occ"
	case KindMVCC:
		return "mvcc"
	case KindWW:
		return "ww"
	default:
		return "unknown"
	}
}

// Variant names one engine and knows how to mint a fresh per-goroutine
// session against it. Go has no goroutine-local transaction state, so
// every worker in a scenario calls NewSession once and reuses it for the
// worker's whole lifetime, the same discipline internal/alloc.Heap
// requires of its owning goroutine.
type Variant struct {
	Kind       Kind
	NewSession func() stmcore.Engine
}

// Name is the human-readable variant label used in Result.Variant.
func (v Variant) Name() string { return v.Kind.String() }

// NewOCCVariant wraps a fresh occstm.Engine with stripeCount lock stripes.
func NewOCCVariant(stripeCount int) Variant {
	eng := occstm.NewEngine(stripeCount)
	return Variant{Kind: KindOCC, NewSession: func() stmcore.Engine { return eng.NewSession() }}
}

// NewMVCCVariant wraps a fresh mvccstm.Engine with stripeCount lock stripes.
func NewMVCCVariant(stripeCount int) Variant {
	eng := mvccstm.NewEngine(stripeCount)
	return Variant{Kind: KindMVCC, NewSession: func() stmcore.Engine { return eng.NewSession() }}
}

// NewWWVariant wraps a fresh wwstm.Engine.
func NewWWVariant() Variant {
	eng := wwstm.NewEngine()
	return Variant{Kind: KindWW, NewSession: func() stmcore.Engine { return eng.NewSession() }}
}

// AllVariants returns one of each engine, sized for scenario-scale
// concurrency (a handful to a few dozen workers).
func AllVariants() []Variant {
	return []Variant{
		NewOCCVariant(64),
		NewMVCCVariant(64),
		NewWWVariant(),
	}
}

// NewCell builds a cell holding initial under v's engine. Go forbids
// generic methods, so this has to be a package-level generic function
// that switches on the variant's kind rather than a method on Variant
// itself.
func NewCell[T any](v Variant, initial T) stmcore.Cell[T] {
	switch v.Kind {
	case KindOCC:
		return occstm.NewCell(initial)
	case KindMVCC:
		return mvccstm.NewCell(initial)
	case KindWW:
		return wwstm.NewCell(initial)
	default:
		panic("bench: unknown variant kind")
	}
}

// newScratchHeap builds a small heap over a fresh page source, sized per
// the allocator's own defaults. Each scenario gets its own heap so runs
// don't share slab state across scenarios.
func newScratchHeap() *alloc.Heap {
	opts := alloc.DefaultOptions()
	return alloc.NewHeap(alloc.NewPageSourceFromOptions(opts), opts.MaxPoolRescueChecks)
}
