package orm

// Bind describes one parameter or result column to the native client: where
// its buffer lives, how long the value is, and where to report NULL and
// truncation. The pointers target the fields of an image Column, so content
// written by either side is visible to the other without copying.
type Bind struct {
	Type     WireType
	Unsigned bool

	// Buffer is the column buffer at its full capacity.
	Buffer []byte

	// Length receives the value length on fetch and supplies it on execute.
	Length *int

	IsNull    *bool
	Truncated *bool
}

// Binding is a fixed-length array of descriptors with a structural version.
//
// The owner bumps Version whenever a descriptor's buffer, capacity or wire
// type changes. Writing new content into existing buffers never changes it.
// Statements keep their own last applied version and rebind only when the
// two differ.
type Binding struct {
	Bind    []Bind
	Version uint64
}

// NewBinding allocates a binding with n descriptor slots.
func NewBinding(n int) *Binding {
	return &Binding{Bind: make([]Bind, n)}
}

// NeedsRebind reports whether a consumer that last applied version applied
// must hand the descriptors to the native client again.
func (b *Binding) NeedsRebind(applied uint64) bool {
	return b.Version != applied
}

// Len returns the number of descriptor slots.
func (b *Binding) Len() int {
	return len(b.Bind)
}

// bindColumn points d at the buffer and indicators of c.
func bindColumn(d *Bind, c *Column) {
	d.Type = c.Type
	d.Unsigned = c.Unsigned
	d.Buffer = c.Buffer
	d.Length = &c.Length
	d.IsNull = &c.IsNull
	d.Truncated = &c.Truncated
}

// bindingPart is one image, or a subset of its columns, feeding a binding.
type bindingPart struct {
	image   *Image
	columns []int
	seen    uint64
}

// imageBinding keeps a Binding in step with the images it is built from.
type imageBinding struct {
	binding *Binding
	parts   []bindingPart
}

// newImageBinding lays out parts in order. A nil column list takes every
// column of the image.
func newImageBinding(parts ...bindingPart) *imageBinding {
	n := 0
	for i := range parts {
		if parts[i].columns == nil {
			parts[i].columns = allColumns(parts[i].image.Len())
		}
		n += len(parts[i].columns)
	}
	ib := &imageBinding{binding: NewBinding(n), parts: parts}
	ib.sync()
	return ib
}

// sync rebuilds the descriptors and bumps the binding version when any source
// image was structurally changed since the last sync. It reports whether a
// rebuild happened.
func (ib *imageBinding) sync() bool {
	stale := ib.binding.Version == 0
	for _, p := range ib.parts {
		if p.image.Version != p.seen {
			stale = true
		}
	}
	if !stale {
		return false
	}

	slot := 0
	for i := range ib.parts {
		p := &ib.parts[i]
		for _, col := range p.columns {
			bindColumn(&ib.binding.Bind[slot], &p.image.Columns[col])
			slot++
		}
		p.seen = p.image.Version
	}
	ib.binding.Version++
	return true
}

func allColumns(n int) []int {
	cols := make([]int, n)
	for i := range cols {
		cols[i] = i
	}
	return cols
}
