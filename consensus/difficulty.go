package consensus

import (
	"math/big"
	"sort"

	"github.com/Shion-Kamoto/BTPC-sub008/netparams"
)

// MaxFutureTimeSeconds is how far into the future, relative to the
// network-adjusted time, a block's timestamp may claim to be.
const MaxFutureTimeSeconds = 2 * 60 * 60

// MedianTimeSpan is the number of preceding blocks whose timestamps are
// used to compute a block's required minimum timestamp.
const MedianTimeSpan = 11

// HeaderTimeSource is the minimal view over prior headers the
// difficulty and timestamp rules need: height-ordered timestamp and
// bits, oldest first, ending at (but not including) the candidate.
type HeaderTimeSource interface {
	// TimestampAt returns the timestamp of the block heightsAgo blocks
	// before the current tip (0 is the tip itself).
	TimestampAt(heightsAgo int64) uint64
	// BitsAt returns the compact bits of the block heightsAgo blocks
	// before the current tip.
	BitsAt(heightsAgo int64) uint32
	// TipHeight is the height of the current chain tip.
	TipHeight() int64
}

// MedianTimePast returns the median of the timestamps of the
// MedianTimeSpan blocks ending at the chain tip, per spec.md §4.4's
// "monotonic median time" rule. Grounded on the difficulty manager's
// blockWindow scan pattern in difficultymanager/hashrate.go, adapted
// from a blue-score window to a simple linear-chain lookback.
func MedianTimePast(src HeaderTimeSource) uint64 {
	tip := src.TipHeight()
	span := int64(MedianTimeSpan)
	if tip+1 < span {
		span = tip + 1
	}
	timestamps := make([]uint64, span)
	for i := int64(0); i < span; i++ {
		timestamps[i] = src.TimestampAt(i)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })
	return timestamps[len(timestamps)/2]
}

// CheckBlockTimestamp validates a candidate block's timestamp against
// the median-time-past floor and the network-adjusted-time ceiling.
func CheckBlockTimestamp(candidateTimestamp uint64, src HeaderTimeSource, networkAdjustedTime uint64) error {
	medianPast := MedianTimePast(src)
	if candidateTimestamp <= medianPast {
		return ruleError(ErrTimeTooOld, "block timestamp is not later than the median of the last 11 blocks")
	}
	if candidateTimestamp > networkAdjustedTime+MaxFutureTimeSeconds {
		return ruleError(ErrTimeTooNew, "block timestamp is too far in the future")
	}
	return nil
}

// RequiredDifficulty computes the bits the next block after the chain
// tip described by src must carry, per spec.md §4.4: retarget every
// params.RetargetInterval blocks, adjustment clamped to [/4, x4] of the
// previous target, clamped again to params.PowLimit.
func RequiredDifficulty(src HeaderTimeSource, params *netparams.Params) uint32 {
	tipHeight := src.TipHeight()
	nextHeight := tipHeight + 1

	if nextHeight%params.RetargetInterval != 0 {
		return src.BitsAt(0)
	}

	// The interval just completed spans params.RetargetInterval blocks
	// ending at the tip; compare the tip's timestamp against the
	// timestamp of the block at the start of that interval.
	firstHeight := nextHeight - params.RetargetInterval
	if firstHeight < 0 {
		return params.PowLimitBits
	}

	firstTimestamp := src.TimestampAt(tipHeight - firstHeight)
	lastTimestamp := src.TimestampAt(0)

	actualTimespan := int64(lastTimestamp) - int64(firstTimestamp)
	adjustedTimespan := clampTimespan(actualTimespan, params.TargetTimespanSeconds)

	oldTarget := CompactToBig(src.BitsAt(0))
	newTarget := new(big.Int).Mul(oldTarget, big.NewInt(adjustedTimespan))
	newTarget.Div(newTarget, big.NewInt(params.TargetTimespanSeconds))

	if newTarget.Cmp(params.PowLimit) > 0 {
		return params.PowLimitBits
	}
	return BigToCompact(newTarget)
}

func clampTimespan(actual, target int64) int64 {
	minSpan := target / 4
	maxSpan := target * 4
	if actual < minSpan {
		return minSpan
	}
	if actual > maxSpan {
		return maxSpan
	}
	return actual
}
