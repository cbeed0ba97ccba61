package graph

// finalize turns every continuation block reachable from n into an executable closure.
// Blocks nested inside a block's body are finalized before the block itself. A block is
// finalized at most once; the result counts the blocks finalized by this call.
func finalize[E any](n node[E]) int {
	count := 0
	for _, c := range n.children() {
		count += finalize(c)
	}
	for _, l := range n.blocks() {
		count += finalize(l.body)
		if l.finalize() {
			count++
		}
	}
	return count
}
