package bench

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/Pam-La/castm/stm"
	"golang.org/x/sync/errgroup"
)

const (
	bstThreads       = 8
	bstKeysPerThread = 500
	bstKeyRange      = bstThreads * bstKeysPerThread
)

// bstNode is a binary search tree node whose child edges are transactional
// cells - every left/right pointer is a stm.Var, not a plain Go pointer,
// so concurrent inserts along different root-to-leaf paths only conflict
// when they actually touch the same edge.
type bstNode struct {
	key         int
	left, right *stm.Var[*bstNode]
}

func newBSTNode(v Variant, key int) *bstNode {
	return &bstNode{
		key:   key,
		left:  stm.NewVar[*bstNode](NewCell[*bstNode](v, nil)),
		right: stm.NewVar[*bstNode](NewCell[*bstNode](v, nil)),
	}
}

func bstInsert(v Variant, tx *stm.Tx, root *stm.Var[*bstNode], key int) {
	cur := root
	for {
		node := cur.Load(tx)
		if node == nil {
			cur.Store(tx, newBSTNode(v, key))
			return
		}
		if key < node.key {
			cur = node.left
		} else {
			cur = node.right
		}
	}
}

// RunBST is spec.md's S4: N=8 threads each insert 500 distinct keys drawn
// from a shuffled partition of [0, 4000) into an initially empty BST.
// After join, an in-order traversal must yield a strictly ascending
// sequence of length 4000.
func RunBST(v Variant) Result {
	start := time.Now()
	heap := newScratchHeap()
	root := stm.NewVar[*bstNode](NewCell[*bstNode](v, nil))

	keys := make([]int, bstKeyRange)
	for i := range keys {
		keys[i] = i
	}
	rand.New(rand.NewSource(1)).Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})

	var g errgroup.Group
	for t := 0; t < bstThreads; t++ {
		share := keys[t*bstKeysPerThread : (t+1)*bstKeysPerThread]
		rt := stm.NewRuntime(v.NewSession(), heap)
		g.Go(func() error {
			for _, key := range share {
				if err := stm.Atomically(rt, func(tx *stm.Tx) {
					bstInsert(v, tx, root, key)
				}); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{Scenario: "S4 BST concurrent insert", Variant: v.Name(), Passed: false, Elapsed: time.Since(start), Detail: err.Error()}
	}

	rt := stm.NewRuntime(v.NewSession(), heap)
	order, err := stm.AtomicallyValue(rt, func(tx *stm.Tx) []int {
		var out []int
		var walk func(n *bstNode)
		walk = func(n *bstNode) {
			if n == nil {
				return
			}
			walk(n.left.Load(tx))
			out = append(out, n.key)
			walk(n.right.Load(tx))
		}
		walk(root.Load(tx))
		return out
	})
	if err != nil {
		return Result{Scenario: "S4 BST concurrent insert", Variant: v.Name(), Passed: false, Elapsed: time.Since(start), Detail: err.Error()}
	}

	ascending := len(order) == bstKeyRange
	for i := 1; ascending && i < len(order); i++ {
		if order[i] <= order[i-1] {
			ascending = false
		}
	}

	return Result{
		Scenario: "S4 BST concurrent insert",
		Variant:  v.Name(),
		Passed:   ascending,
		Elapsed:  time.Since(start),
		Detail:   fmt.Sprintf("traversal length %d, want %d ascending", len(order), bstKeyRange),
	}
}
