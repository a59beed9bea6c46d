package packer

// Growing binary-tree rectangle packing. Blocks are placed one at a
// time into the first free node that fits; when nothing fits, the
// container grows right or down, whichever keeps it squarer. The result
// is deterministic for a given block sequence and placed boxes never
// overlap. Total area is minimized heuristically, not optimally.

type block struct {
	id   string
	w, h int
	x, y int
}

type pnode struct {
	x, y, w, h  int
	used        bool
	right, down *pnode
}

// fit assigns a position to every block and returns the container size.
func fit(blocks []block) (int, int) {
	if len(blocks) == 0 {
		return 0, 0
	}

	root := &pnode{w: blocks[0].w, h: blocks[0].h}
	for i := range blocks {
		b := &blocks[i]
		n := findNode(root, b.w, b.h)
		if n != nil {
			n = splitNode(n, b.w, b.h)
		} else {
			n = growNode(&root, b.w, b.h)
		}
		b.x, b.y = n.x, n.y
	}

	return root.w, root.h
}

func findNode(n *pnode, w, h int) *pnode {
	if n == nil {
		return nil
	}
	if n.used {
		if r := findNode(n.right, w, h); r != nil {
			return r
		}
		return findNode(n.down, w, h)
	}
	if w <= n.w && h <= n.h {
		return n
	}
	return nil
}

func splitNode(n *pnode, w, h int) *pnode {
	n.used = true
	n.down = &pnode{x: n.x, y: n.y + h, w: n.w, h: n.h - h}
	n.right = &pnode{x: n.x + w, y: n.y, w: n.w - w, h: h}
	return n
}

func growNode(root **pnode, w, h int) *pnode {
	r := *root
	canGrowDown := w <= r.w
	canGrowRight := h <= r.h

	// Prefer the direction that keeps the container square.
	shouldGrowRight := canGrowRight && r.h >= r.w+w
	shouldGrowDown := canGrowDown && r.w >= r.h+h

	switch {
	case shouldGrowRight:
		return growRight(root, w, h)
	case shouldGrowDown:
		return growDown(root, w, h)
	case canGrowRight:
		return growRight(root, w, h)
	case canGrowDown:
		return growDown(root, w, h)
	default:
		// Block exceeds the container in both dimensions; widen and
		// extend downward in one step.
		return growBoth(root, w, h)
	}
}

func growRight(root **pnode, w, h int) *pnode {
	r := *root
	*root = &pnode{
		used:  true,
		w:     r.w + w,
		h:     r.h,
		down:  r,
		right: &pnode{x: r.w, y: 0, w: w, h: r.h},
	}
	n := findNode(*root, w, h)
	return splitNode(n, w, h)
}

func growDown(root **pnode, w, h int) *pnode {
	r := *root
	*root = &pnode{
		used:  true,
		w:     r.w,
		h:     r.h + h,
		right: r,
		down:  &pnode{x: 0, y: r.h, w: r.w, h: h},
	}
	n := findNode(*root, w, h)
	return splitNode(n, w, h)
}

func growBoth(root **pnode, w, h int) *pnode {
	r := *root
	newW := r.w
	if w > newW {
		newW = w
	}
	*root = &pnode{
		used:  true,
		w:     newW,
		h:     r.h + h,
		right: r,
		down:  &pnode{x: 0, y: r.h, w: newW, h: h},
	}
	n := findNode(*root, w, h)
	return splitNode(n, w, h)
}
