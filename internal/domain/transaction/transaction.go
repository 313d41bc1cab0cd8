package transaction

import (
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
)

// Kind identifies what an operation changes
type Kind int

const (
	// Surface operations
	KindPosition Kind = iota
	KindCrop
	KindCornerRadius
	KindLayer
	KindVisibility

	// Container operations
	KindBounds
	KindScreenSizeDp
	KindHidden
	KindReorder
	KindInsets
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindPosition:
		return "position"
	case KindCrop:
		return "crop"
	case KindCornerRadius:
		return "corner-radius"
	case KindLayer:
		return "layer"
	case KindVisibility:
		return "visibility"
	case KindBounds:
		return "bounds"
	case KindScreenSizeDp:
		return "screen-size-dp"
	case KindHidden:
		return "hidden"
	case KindReorder:
		return "reorder"
	case KindInsets:
		return "insets"
	default:
		return "unknown"
	}
}

// IsSurface reports whether the kind targets a surface rather than a container
func (k Kind) IsSurface() bool {
	return k <= KindVisibility
}

// Op is one operation in a transaction. Only the fields relevant to Kind are
// meaningful.
type Op struct {
	Kind      Kind
	Surface   id.SurfaceID
	Container id.Token

	X, Y   float64
	Rect   types.Rect
	Clear  bool // crop or radius removed
	Radius float64
	Layer  int
	Flag   bool // visible, hidden, on-top
	Width  int
	Height int
}

// Target returns the surface or container the op applies to
func (o Op) Target() string {
	if o.Kind.IsSurface() {
		return string(o.Surface)
	}
	return string(o.Container)
}

type slot struct {
	kind   Kind
	target string
}

// Transaction batches surface and container operations for atomic commit.
// A later op of the same kind on the same target replaces the earlier one in
// place, so the compositor never sees two conflicting writes.
type Transaction struct {
	ops   []Op
	index map[slot]int
}

// New creates an empty transaction
func New() *Transaction {
	return &Transaction{index: make(map[slot]int)}
}

func (t *Transaction) add(op Op) *Transaction {
	if t.index == nil {
		t.index = make(map[slot]int)
	}
	key := slot{kind: op.Kind, target: op.Target()}
	if i, ok := t.index[key]; ok {
		t.ops[i] = op
		return t
	}
	t.index[key] = len(t.ops)
	t.ops = append(t.ops, op)
	return t
}

// SetPosition translates a surface
func (t *Transaction) SetPosition(s id.SurfaceID, x, y float64) *Transaction {
	return t.add(Op{Kind: KindPosition, Surface: s, X: x, Y: y})
}

// SetCrop clips a surface to r in surface coordinates
func (t *Transaction) SetCrop(s id.SurfaceID, r types.Rect) *Transaction {
	return t.add(Op{Kind: KindCrop, Surface: s, Rect: r})
}

// ClearCrop removes any clip from a surface
func (t *Transaction) ClearCrop(s id.SurfaceID) *Transaction {
	return t.add(Op{Kind: KindCrop, Surface: s, Clear: true})
}

// SetCornerRadius rounds a surface's corners
func (t *Transaction) SetCornerRadius(s id.SurfaceID, r float64) *Transaction {
	return t.add(Op{Kind: KindCornerRadius, Surface: s, Radius: r})
}

// ClearCornerRadius removes rounding
func (t *Transaction) ClearCornerRadius(s id.SurfaceID) *Transaction {
	return t.add(Op{Kind: KindCornerRadius, Surface: s, Clear: true})
}

// SetLayer sets a surface's z-order
func (t *Transaction) SetLayer(s id.SurfaceID, layer int) *Transaction {
	return t.add(Op{Kind: KindLayer, Surface: s, Layer: layer})
}

// Show makes a surface visible
func (t *Transaction) Show(s id.SurfaceID) *Transaction {
	return t.add(Op{Kind: KindVisibility, Surface: s, Flag: true})
}

// Hide makes a surface invisible
func (t *Transaction) Hide(s id.SurfaceID) *Transaction {
	return t.add(Op{Kind: KindVisibility, Surface: s, Flag: false})
}

// SetBounds moves a container to r in screen coordinates
func (t *Transaction) SetBounds(c id.Token, r types.Rect) *Transaction {
	return t.add(Op{Kind: KindBounds, Container: c, Rect: r})
}

// SetScreenSizeDp pins the configuration size of a container
func (t *Transaction) SetScreenSizeDp(c id.Token, width, height int) *Transaction {
	return t.add(Op{Kind: KindScreenSizeDp, Container: c, Width: width, Height: height})
}

// SetHidden hides or unhides a container
func (t *Transaction) SetHidden(c id.Token, hidden bool) *Transaction {
	return t.add(Op{Kind: KindHidden, Container: c, Flag: hidden})
}

// Reorder moves a container to the top or bottom of its parent
func (t *Transaction) Reorder(c id.Token, onTop bool) *Transaction {
	return t.add(Op{Kind: KindReorder, Container: c, Flag: onTop})
}

// SetInsets registers r as the insets provider frame for a container
func (t *Transaction) SetInsets(c id.Token, r types.Rect) *Transaction {
	return t.add(Op{Kind: KindInsets, Container: c, Rect: r})
}

// Merge appends other's operations with the same replacement rule
func (t *Transaction) Merge(other *Transaction) *Transaction {
	if other == nil {
		return t
	}
	for _, op := range other.ops {
		t.add(op)
	}
	return t
}

// Ops returns a copy of the operations in commit order
func (t *Transaction) Ops() []Op {
	out := make([]Op, len(t.ops))
	copy(out, t.ops)
	return out
}

// Len returns the number of operations
func (t *Transaction) Len() int { return len(t.ops) }

// Empty reports whether there is nothing to commit
func (t *Transaction) Empty() bool { return len(t.ops) == 0 }
