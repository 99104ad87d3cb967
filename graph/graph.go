package graph

import (
	"fmt"
	"iter"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/skdltmxn/sdkgen/internal/stream"
	"github.com/skdltmxn/sdkgen/memory"
)

const (
	// DefaultMaxChain bounds outer, super and children walks.
	DefaultMaxChain = 1 << 16

	// DefaultNameCache is the default number of cached name texts.
	DefaultNameCache = 1 << 16

	maxTableEntries = 1 << 24
	maxNameLength   = 1024
	slotBatch       = 512
)

// DefaultDenylist lists names known to collide across unrelated scopes.
// The graph carries no flag for this, so the list is maintained by hand.
var DefaultDenylist = []string{
	"ECompareObjectOutputLinkIds",
	"EFlightMode",
	"CheckpointRecord",
	"TerrainWeightedMaterial",
	"ProjectileBehaviorSequenceStateData",
}

// Graph is a read-only view over the reflection graph of one process.
type Graph struct {
	mem     *memory.Reader
	layout  Layout
	objects memory.Addr // TArray<UObject*>
	names   memory.Addr // TArray<FNameEntry*>

	maxChain  int
	nameCache *lru.Cache[uint32, string]

	mu       sync.RWMutex
	denylist map[string]struct{}
}

type options struct {
	denylist  []string
	nameCache int
	maxChain  int
}

// Option configures a Graph.
type Option func(*options)

// WithDenylist replaces the names that are always qualified by their outers.
func WithDenylist(names ...string) Option {
	return func(o *options) { o.denylist = names }
}

// WithNameCache sets the number of cached name texts. Zero disables caching.
func WithNameCache(n int) Option {
	return func(o *options) { o.nameCache = n }
}

// WithMaxChain bounds every pointer chain walk.
func WithMaxChain(n int) Option {
	return func(o *options) { o.maxChain = n }
}

// New creates a Graph over the object and name tables at the given addresses.
func New(mem *memory.Reader, layout Layout, objects, names memory.Addr, opts ...Option) (*Graph, error) {
	o := options{
		denylist:  DefaultDenylist,
		nameCache: DefaultNameCache,
		maxChain:  DefaultMaxChain,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if int(layout.PointerSize) != mem.PointerSize() {
		return nil, fmt.Errorf("%w: layout pointer size %d, reader pointer size %d",
			ErrLayout, layout.PointerSize, mem.PointerSize())
	}
	if objects.IsNull() || names.IsNull() {
		return nil, fmt.Errorf("%w: object and name table addresses are required", ErrLayout)
	}

	g := &Graph{
		mem:      mem,
		layout:   layout,
		objects:  objects,
		names:    names,
		maxChain: o.maxChain,
		denylist: make(map[string]struct{}, len(o.denylist)),
	}
	if g.maxChain <= 0 {
		g.maxChain = DefaultMaxChain
	}
	for _, name := range o.denylist {
		g.denylist[name] = struct{}{}
	}

	if o.nameCache > 0 {
		cache, err := lru.New[uint32, string](o.nameCache)
		if err != nil {
			return nil, fmt.Errorf("graph: failed to create name cache: %w", err)
		}
		g.nameCache = cache
	}

	return g, nil
}

// Layout returns the structure offsets in use.
func (g *Graph) Layout() Layout {
	return g.layout
}

// Memory returns the underlying reader.
func (g *Graph) Memory() *memory.Reader {
	return g.mem
}

// ObjectsAddr returns the address of the global object table.
func (g *Graph) ObjectsAddr() memory.Addr {
	return g.objects
}

// NamesAddr returns the address of the global name table.
func (g *Graph) NamesAddr() memory.Addr {
	return g.names
}

// Object returns a handle for the node at addr.
func (g *Graph) Object(addr memory.Addr) Object {
	return Object{g: g, Addr: addr}
}

type table struct {
	data  memory.Addr
	count uint32
}

func (g *Graph) table(addr memory.Addr, what string) (table, error) {
	data, err := g.mem.Ptr(addr)
	if err != nil {
		return table{}, fmt.Errorf("graph: %s table: %w", what, err)
	}
	count, err := g.mem.U32(addr.Add(g.layout.PointerSize))
	if err != nil {
		return table{}, fmt.Errorf("graph: %s table: %w", what, err)
	}
	if count > maxTableEntries {
		return table{}, fmt.Errorf("%w: %s table has %d entries", ErrTableTooLarge, what, count)
	}
	return table{data: data, count: count}, nil
}

// slots reads a table of pointers in batches.
func (g *Graph) slots(t table) iter.Seq2[memory.Addr, error] {
	return func(yield func(memory.Addr, error) bool) {
		ptr := int(g.layout.PointerSize)
		buf := make([]byte, slotBatch*ptr)

		for start := uint32(0); start < t.count; start += slotBatch {
			n := min(t.count-start, slotBatch)
			block := buf[:int(n)*ptr]
			if err := g.mem.Read(t.data.Add(start*uint32(ptr)), block); err != nil {
				yield(0, err)
				return
			}

			r := stream.NewReader(block, ptr)
			for range n {
				v, err := r.ReadPtr()
				if !yield(memory.Addr(v), err) {
					return
				}
			}
		}
	}
}

// ObjectCount returns the number of slots in the object table, null or not.
func (g *Graph) ObjectCount() (int, error) {
	t, err := g.table(g.objects, "object")
	if err != nil {
		return 0, err
	}
	return int(t.count), nil
}

// Objects iterates over the non-null slots of the object table in table order.
// A read failure is yielded once and ends the sequence.
func (g *Graph) Objects() iter.Seq2[Object, error] {
	return func(yield func(Object, error) bool) {
		t, err := g.table(g.objects, "object")
		if err != nil {
			yield(Object{}, err)
			return
		}

		for addr, err := range g.slots(t) {
			if err != nil {
				yield(Object{}, fmt.Errorf("graph: object table: %w", err))
				return
			}
			if addr.IsNull() {
				continue
			}
			if !yield(g.Object(addr), nil) {
				return
			}
		}
	}
}

// Find returns the first object whose full name equals fullName.
func (g *Graph) Find(fullName string) (Object, error) {
	for obj, err := range g.Objects() {
		if err != nil {
			return Object{}, err
		}
		name, err := obj.FullName()
		if err != nil {
			continue
		}
		if name == fullName {
			return obj, nil
		}
	}
	return Object{}, fmt.Errorf("%w: %q", ErrObjectNotFound, fullName)
}

// NameCount returns the number of slots in the name table.
func (g *Graph) NameCount() (int, error) {
	t, err := g.table(g.names, "name")
	if err != nil {
		return 0, err
	}
	return int(t.count), nil
}

// NameText resolves a name table index to its text.
func (g *Graph) NameText(index uint32) (string, error) {
	if g.nameCache != nil {
		if s, ok := g.nameCache.Get(index); ok {
			return s, nil
		}
	}

	t, err := g.table(g.names, "name")
	if err != nil {
		return "", err
	}
	if index >= t.count {
		return "", fmt.Errorf("%w: index %d out of range (%d names)", ErrMissingName, index, t.count)
	}

	entry, err := g.mem.Ptr(t.data.Add(index * g.layout.PointerSize))
	if err != nil {
		return "", fmt.Errorf("%w: index %d: %v", ErrMissingName, index, err)
	}
	if entry.IsNull() {
		return "", fmt.Errorf("%w: index %d is unset", ErrMissingName, index)
	}

	text, err := g.mem.CString(entry.Add(g.layout.NameEntryText), maxNameLength)
	if err != nil {
		return "", fmt.Errorf("%w: index %d: %v", ErrMissingName, index, err)
	}

	if g.nameCache != nil {
		g.nameCache.Add(index, text)
	}
	return text, nil
}

// Names iterates over every resolvable entry of the name table.
func (g *Graph) Names() iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		t, err := g.table(g.names, "name")
		if err != nil {
			return
		}

		i := -1
		for entry, err := range g.slots(t) {
			i++
			if err != nil {
				return
			}
			if entry.IsNull() {
				continue
			}
			text, err := g.NameText(uint32(i))
			if err != nil {
				continue
			}
			if !yield(i, text) {
				return
			}
		}
	}
}

// AddDuplicates extends the set of names qualified by their outers.
func (g *Graph) AddDuplicates(names ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, name := range names {
		g.denylist[name] = struct{}{}
	}
}

// IsDuplicate reports whether name is qualified by its outers.
func (g *Graph) IsDuplicate(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.denylist[name]
	return ok
}

// Duplicates returns the current denylist, sorted.
func (g *Graph) Duplicates() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(g.denylist))
	for name := range g.denylist {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ResolveDuplicate returns the emitted name of obj. Names on the denylist
// become "{root}_{belowRoot}_{name}", where root is the outermost package.
func (g *Graph) ResolveDuplicate(obj Object) (string, error) {
	name, err := obj.Name()
	if err != nil {
		return "", err
	}
	if !g.IsDuplicate(name) {
		return name, nil
	}

	var chain []Object
	for o, err := range obj.Outers() {
		if err != nil {
			return "", err
		}
		chain = append(chain, o)
	}
	if len(chain) < 2 {
		return "", &NodeError{Addr: obj.Addr, Op: "resolve duplicate", Err: ErrNoOuter}
	}

	module, err := chain[len(chain)-1].Name()
	if err != nil {
		return "", err
	}
	submodule, err := chain[len(chain)-2].Name()
	if err != nil {
		return "", err
	}

	return module + "_" + submodule + "_" + name, nil
}
