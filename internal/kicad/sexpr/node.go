package sexpr

// Node is either an atom or a list.
type Node struct {
	Value  string
	Quoted bool
	Items  []*Node
	list   bool
}

// Symbol returns a bare atom.
func Symbol(v string) *Node {
	return &Node{Value: v}
}

// String returns a quoted atom.
func String(v string) *Node {
	return &Node{Value: v, Quoted: true}
}

// List returns a list node holding items.
func List(items ...*Node) *Node {
	return &Node{Items: items, list: true}
}

// Form returns a list headed by a bare atom, the common (head arg...) shape.
func Form(head string, args ...*Node) *Node {
	return List(append([]*Node{Symbol(head)}, args...)...)
}

// IsList reports whether n is a list.
func (n *Node) IsList() bool {
	return n != nil && n.list
}

// Head returns the leading atom of a list, or "" for atoms and empty lists.
func (n *Node) Head() string {
	if !n.IsList() || len(n.Items) == 0 || n.Items[0].IsList() {
		return ""
	}
	return n.Items[0].Value
}

// Arg returns the value of the i-th atom after the head.
func (n *Node) Arg(i int) (string, bool) {
	if !n.IsList() || i+1 >= len(n.Items) || n.Items[i+1].IsList() {
		return "", false
	}
	return n.Items[i+1].Value, true
}

// SetArg replaces or appends the i-th argument after the head.
func (n *Node) SetArg(i int, atom *Node) {
	idx := i + 1
	for len(n.Items) <= idx {
		n.Items = append(n.Items, Symbol(""))
	}
	n.Items[idx] = atom
}

// Child returns the first direct child list whose head is name.
func (n *Node) Child(name string) *Node {
	if !n.IsList() {
		return nil
	}
	for _, item := range n.Items {
		if item.Head() == name {
			return item
		}
	}
	return nil
}

// Children returns every direct child list whose head is name.
func (n *Node) Children(name string) []*Node {
	if !n.IsList() {
		return nil
	}
	var out []*Node
	for _, item := range n.Items {
		if item.Head() == name {
			out = append(out, item)
		}
	}
	return out
}

// Append adds items to the end of a list.
func (n *Node) Append(items ...*Node) {
	n.Items = append(n.Items, items...)
}

// InsertAfterHead inserts items immediately after the leading arguments of
// n, that is before its first child list.
func (n *Node) InsertAfterHead(items ...*Node) {
	pos := len(n.Items)
	for i, item := range n.Items {
		if i > 0 && item.IsList() {
			pos = i
			break
		}
	}
	rest := append([]*Node{}, n.Items[pos:]...)
	n.Items = append(append(n.Items[:pos], items...), rest...)
}

// RemoveChildren drops direct child lists whose head is name and reports how
// many were removed.
func (n *Node) RemoveChildren(name string) int {
	kept := n.Items[:0]
	removed := 0
	for _, item := range n.Items {
		if item.Head() == name {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	n.Items = kept
	return removed
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Value: n.Value, Quoted: n.Quoted, list: n.list}
	if n.list {
		out.Items = make([]*Node, len(n.Items))
		for i, item := range n.Items {
			out.Items[i] = item.Clone()
		}
	}
	return out
}
