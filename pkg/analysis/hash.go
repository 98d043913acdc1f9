package analysis

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"github.com/covview/covview/pkg/model"
)

// Fingerprint returns a stable content hash of a snapshot tree, used to
// dedup history records. Two trees with the same names, kinds, stats and
// shape hash the same regardless of instance identity.
func Fingerprint(root *model.Node) string {
	h := fnv.New64a()
	var scratch [8]byte

	var walk func(n *model.Node, depth int)
	walk = func(n *model.Node, depth int) {
		h.Write([]byte(n.Name))
		binary.LittleEndian.PutUint64(scratch[:], uint64(n.Kind))
		h.Write(scratch[:])
		binary.LittleEndian.PutUint64(scratch[:], uint64(n.Stats.Covered))
		h.Write(scratch[:])
		binary.LittleEndian.PutUint64(scratch[:], uint64(n.Stats.Total))
		h.Write(scratch[:])
		binary.LittleEndian.PutUint64(scratch[:], uint64(depth))
		h.Write(scratch[:])
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	if root != nil {
		walk(root, 0)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
