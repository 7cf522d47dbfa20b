// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mem

// Intrusive red-black tree keyed by uintptr, with duplicate keys allowed.
// Nodes are embedded in pool-allocated records (see offsetheap.go), so the
// tree never allocates. Iteration is by parent pointers, no stack.

type rbNode struct {
	parent, left, right *rbNode
	red                 bool
	key                 uintptr
}

type rbTree struct {
	root  *rbNode
	count int
}

func (t *rbTree) size() int { return t.count }

func (t *rbTree) first() *rbNode {
	n := t.root
	if n == nil {
		return nil
	}
	for n.left != nil {
		n = n.left
	}
	return n
}

func rbNext(n *rbNode) *rbNode {
	if n.right != nil {
		n = n.right
		for n.left != nil {
			n = n.left
		}
		return n
	}
	for n.parent != nil && n == n.parent.right {
		n = n.parent
	}
	return n.parent
}

func rbPrev(n *rbNode) *rbNode {
	if n.left != nil {
		n = n.left
		for n.right != nil {
			n = n.right
		}
		return n
	}
	for n.parent != nil && n == n.parent.left {
		n = n.parent
	}
	return n.parent
}

// lowerBound returns the leftmost node with key >= k, or nil.
func (t *rbTree) lowerBound(k uintptr) *rbNode {
	var best *rbNode
	n := t.root
	for n != nil {
		if n.key >= k {
			best = n
			n = n.left
		} else {
			n = n.right
		}
	}
	return best
}

func (t *rbTree) rotateLeft(x *rbNode) {
	y := x.right
	x.right = y.left
	if y.left != nil {
		y.left.parent = x
	}
	y.parent = x.parent
	switch {
	case x.parent == nil:
		t.root = y
	case x == x.parent.left:
		x.parent.left = y
	default:
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (t *rbTree) rotateRight(x *rbNode) {
	y := x.left
	x.left = y.right
	if y.right != nil {
		y.right.parent = x
	}
	y.parent = x.parent
	switch {
	case x.parent == nil:
		t.root = y
	case x == x.parent.right:
		x.parent.right = y
	default:
		x.parent.left = y
	}
	y.right = x
	x.parent = y
}

func (t *rbTree) insert(n *rbNode) {
	n.left, n.right, n.parent = nil, nil, nil
	n.red = true
	t.count++

	var parent *rbNode
	link := &t.root
	for *link != nil {
		parent = *link
		if n.key < parent.key {
			link = &parent.left
		} else {
			link = &parent.right
		}
	}
	n.parent = parent
	*link = n

	// Rebalance.
	for n.parent != nil && n.parent.red {
		g := n.parent.parent
		if n.parent == g.left {
			u := g.right
			if u != nil && u.red {
				n.parent.red = false
				u.red = false
				g.red = true
				n = g
				continue
			}
			if n == n.parent.right {
				n = n.parent
				t.rotateLeft(n)
			}
			n.parent.red = false
			g.red = true
			t.rotateRight(g)
		} else {
			u := g.left
			if u != nil && u.red {
				n.parent.red = false
				u.red = false
				g.red = true
				n = g
				continue
			}
			if n == n.parent.left {
				n = n.parent
				t.rotateRight(n)
			}
			n.parent.red = false
			g.red = true
			t.rotateLeft(g)
		}
	}
	t.root.red = false
}

func (t *rbTree) transplant(u, v *rbNode) {
	switch {
	case u.parent == nil:
		t.root = v
	case u == u.parent.left:
		u.parent.left = v
	default:
		u.parent.right = v
	}
	if v != nil {
		v.parent = u.parent
	}
}

func (t *rbTree) remove(z *rbNode) {
	t.count--

	y := z
	yWasRed := y.red
	var x, xParent *rbNode

	switch {
	case z.left == nil:
		x = z.right
		xParent = z.parent
		t.transplant(z, z.right)
	case z.right == nil:
		x = z.left
		xParent = z.parent
		t.transplant(z, z.left)
	default:
		y = z.right
		for y.left != nil {
			y = y.left
		}
		yWasRed = y.red
		x = y.right
		if y.parent == z {
			xParent = y
		} else {
			xParent = y.parent
			t.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		t.transplant(z, y)
		y.left = z.left
		y.left.parent = y
		y.red = z.red
	}
	z.parent, z.left, z.right = nil, nil, nil

	if yWasRed {
		return
	}
	// Fix double black at x (possibly nil) under xParent.
	for x != t.root && (x == nil || !x.red) {
		if xParent == nil {
			break
		}
		if x == xParent.left {
			w := xParent.right
			if w.red {
				w.red = false
				xParent.red = true
				t.rotateLeft(xParent)
				w = xParent.right
			}
			if (w.left == nil || !w.left.red) && (w.right == nil || !w.right.red) {
				w.red = true
				x = xParent
				xParent = x.parent
				continue
			}
			if w.right == nil || !w.right.red {
				w.left.red = false
				w.red = true
				t.rotateRight(w)
				w = xParent.right
			}
			w.red = xParent.red
			xParent.red = false
			w.right.red = false
			t.rotateLeft(xParent)
			x = t.root
		} else {
			w := xParent.left
			if w.red {
				w.red = false
				xParent.red = true
				t.rotateRight(xParent)
				w = xParent.left
			}
			if (w.left == nil || !w.left.red) && (w.right == nil || !w.right.red) {
				w.red = true
				x = xParent
				xParent = x.parent
				continue
			}
			if w.left == nil || !w.left.red {
				w.right.red = false
				w.red = true
				t.rotateLeft(w)
				w = xParent.left
			}
			w.red = xParent.red
			xParent.red = false
			w.left.red = false
			t.rotateRight(xParent)
			x = t.root
		}
	}
	if x != nil {
		x.red = false
	}
}
