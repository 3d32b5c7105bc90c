package chain

// nodeTimeSource adapts a blockNode chain (walking Parent pointers back
// from tip) to consensus.HeaderTimeSource, so RequiredDifficulty and
// MedianTimePast can be computed against any candidate tip -- including
// a side-branch tip being evaluated during reorganization, not just the
// manager's current best tip.
type nodeTimeSource struct {
	tip *blockNode
}

func (s nodeTimeSource) TimestampAt(heightsAgo int64) uint64 {
	node := s.tip.ancestorAt(uint32(int64(s.tip.Height) - heightsAgo))
	if node == nil {
		return 0
	}
	return node.Header.Timestamp
}

func (s nodeTimeSource) BitsAt(heightsAgo int64) uint32 {
	node := s.tip.ancestorAt(uint32(int64(s.tip.Height) - heightsAgo))
	if node == nil {
		return 0
	}
	return node.Header.Bits
}

func (s nodeTimeSource) TipHeight() int64 {
	return int64(s.tip.Height)
}
