package loader

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"path"
	"sort"
	"strings"

	"github.com/covview/covview/pkg/model"
)

// Builder assembles snapshot trees from profile blocks and manifest
// fixtures. It retains a content hash per subtree across builds: when a
// subtree's content is unchanged the builder returns the same *model.Node
// instance as last time, so the view layer can skip the whole region by
// pointer comparison. Anything on the spine above a change gets a fresh
// instance.
//
// A Builder is not safe for concurrent use; the background worker owns it.
type Builder struct {
	// RootName labels the tree root. Defaults to "coverage".
	RootName string

	prev map[string]cached
}

type cached struct {
	hash uint64
	node *model.Node
}

// NewBuilder returns an empty builder. The first Build produces all-fresh
// instances.
func NewBuilder() *Builder {
	return &Builder{RootName: "coverage", prev: make(map[string]cached)}
}

// Build parses the profile (and optional manifest, "" to skip) and
// assembles the snapshot tree.
func (b *Builder) Build(profilePath, manifestPath string) (*model.Node, error) {
	_, blocks, err := ParseProfileFile(profilePath)
	if err != nil {
		return nil, err
	}
	manifest := &Manifest{}
	if manifestPath != "" {
		manifest, err = LoadManifest(manifestPath)
		if err != nil {
			return nil, err
		}
	}
	return b.Assemble(blocks, manifest.Fixtures)
}

// Assemble builds the snapshot tree from already-parsed inputs.
func (b *Builder) Assemble(blocks []Block, fixtures []Fixture) (*model.Node, error) {
	root := newDir()
	for _, blk := range blocks {
		dirPath, file := path.Split(blk.File)
		if file == "" {
			continue
		}
		d := root.descend(dirPath)
		d.files[file] = append(d.files[file], blk)
	}
	for _, f := range fixtures {
		dirPath, base := path.Split(f.Path)
		if base == "" {
			continue
		}
		name := f.Name
		if name == "" {
			name = base
		}
		d := root.descend(dirPath)
		d.data[name] = struct{}{}
	}

	next := make(map[string]cached)
	node, _, err := b.buildDir(next, "", b.RootName, root)
	if err != nil {
		return nil, err
	}
	b.prev = next
	return node, nil
}

// dir is the intermediate path trie built from block and fixture paths.
type dir struct {
	dirs  map[string]*dir
	files map[string][]Block
	data  map[string]struct{}
}

func newDir() *dir {
	return &dir{
		dirs:  make(map[string]*dir),
		files: make(map[string][]Block),
		data:  make(map[string]struct{}),
	}
}

// descend walks (creating) the trie along a slash-separated directory path.
func (d *dir) descend(dirPath string) *dir {
	for _, seg := range strings.Split(dirPath, "/") {
		if seg == "" {
			continue
		}
		child, ok := d.dirs[seg]
		if !ok {
			child = newDir()
			d.dirs[seg] = child
		}
		d = child
	}
	return d
}

// buildDir assembles a namespace node for one trie level. key is the
// cache path of the node, unique across the tree.
func (b *Builder) buildDir(next map[string]cached, key, name string, d *dir) (*model.Node, uint64, error) {
	var children []*model.Node
	var hashes []uint64

	for _, seg := range sortedKeys(d.dirs) {
		child, h, err := b.buildDir(next, key+"/"+seg, seg, d.dirs[seg])
		if err != nil {
			return nil, 0, err
		}
		children = append(children, child)
		hashes = append(hashes, h)
	}
	for _, file := range sortedKeys(d.files) {
		child, h, err := b.buildFile(next, key+"/"+file, file, d.files[file])
		if err != nil {
			return nil, 0, err
		}
		children = append(children, child)
		hashes = append(hashes, h)
	}
	for _, fixture := range sortedKeys(d.data) {
		child, h, err := b.intern(next, key+"#data:"+fixture, fixture, model.KindData, model.Stats{}, nil, nil)
		if err != nil {
			return nil, 0, err
		}
		children = append(children, child)
		hashes = append(hashes, h)
	}

	return b.intern(next, key, name, model.KindNamespace, model.Stats{}, children, hashes)
}

// buildFile assembles a file node with one child per instrumented block.
func (b *Builder) buildFile(next map[string]cached, key, name string, blocks []Block) (*model.Node, uint64, error) {
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].StartLine != blocks[j].StartLine {
			return blocks[i].StartLine < blocks[j].StartLine
		}
		return blocks[i].StartCol < blocks[j].StartCol
	})

	var children []*model.Node
	var hashes []uint64
	for _, blk := range blocks {
		stats := model.Stats{Total: blk.Statements}
		if blk.Covered() {
			stats.Covered = blk.Statements
		}
		label := fmt.Sprintf("L%d-L%d", blk.StartLine, blk.EndLine)
		child, h, err := b.intern(next, fmt.Sprintf("%s#%d.%d", key, blk.StartLine, blk.StartCol), label, model.KindMethod, stats, nil, nil)
		if err != nil {
			return nil, 0, err
		}
		children = append(children, child)
		hashes = append(hashes, h)
	}

	return b.intern(next, key, name, model.KindClass, model.Stats{}, children, hashes)
}

// intern hashes a node's content and either reuses the previous instance at
// the same cache path (hash unchanged) or constructs a fresh one. Hash
// equality stands in for deep equality; 64-bit FNV over the full subtree
// content makes collisions a non-concern in practice.
func (b *Builder) intern(next map[string]cached, key, name string, kind model.NodeKind, stats model.Stats, children []*model.Node, childHashes []uint64) (*model.Node, uint64, error) {
	h := fnv.New64a()
	h.Write([]byte(name))
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], uint64(kind))
	h.Write(scratch[:])
	binary.LittleEndian.PutUint64(scratch[:], uint64(stats.Covered))
	h.Write(scratch[:])
	binary.LittleEndian.PutUint64(scratch[:], uint64(stats.Total))
	h.Write(scratch[:])
	for _, ch := range childHashes {
		binary.LittleEndian.PutUint64(scratch[:], ch)
		h.Write(scratch[:])
	}
	sum := h.Sum64()

	if old, ok := b.prev[key]; ok && old.hash == sum {
		next[key] = old
		return old.node, sum, nil
	}

	node, err := model.NewNode(name, kind, stats, children)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build node at %q: %w", key, err)
	}
	next[key] = cached{hash: sum, node: node}
	return node, sum, nil
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
