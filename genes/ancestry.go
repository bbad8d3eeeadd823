package genes

// AncestorSnapshot records one ancestor's genome. Generation 0 is the
// immediate parent, 1 the grandparent, and so on.
type AncestorSnapshot struct {
	Genome     Genome
	Generation int
}

// Trail is a bounded lineage, most recent ancestor first. Trails are value
// types: each reproduction builds a fresh trail rather than back-referencing
// the parent, so lineages never form unbounded chains.
type Trail []AncestorSnapshot

// Extend builds a child's trail from the parent's: the parent genome is
// prepended at generation 0 ahead of the parent's own entries shifted up one
// generation, truncated to maxDepth. The receiver is not modified.
func (t Trail) Extend(parent Genome, maxDepth int) Trail {
	if maxDepth <= 0 {
		return nil
	}
	child := make(Trail, 0, maxDepth)
	child = append(child, AncestorSnapshot{Genome: parent, Generation: 0})
	for _, a := range t {
		if len(child) >= maxDepth {
			break
		}
		child = append(child, AncestorSnapshot{Genome: a.Genome, Generation: a.Generation + 1})
	}
	return child
}

// Clone returns an independent copy of the trail.
func (t Trail) Clone() Trail {
	if t == nil {
		return nil
	}
	out := make(Trail, len(t))
	copy(out, t)
	return out
}
