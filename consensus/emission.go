package consensus

// BTPC's block subsidy decays linearly in the fraction of DecayEndHeight
// elapsed rather than following Bitcoin's geometric halving, per
// spec.md §4.4/§9: reward(h) = max(TailReward, GenesisReward *
// (1 - h/DecayEndHeight)). Because TailReward is a floor rather than
// the decay's exact endpoint, the flat tail begins well before h
// reaches DecayEndHeight -- DecayEndHeight only names the height the
// decay's slope was chosen against, not the height the floor starts
// applying at. Amounts are expressed in the smallest unit (1 BTPC =
// 1e8 units, matching Bitcoin's satoshi scale) so the schedule can be
// computed with exact integer arithmetic.
const (
	// UnitsPerCoin is the number of smallest units in one BTPC.
	UnitsPerCoin = 100_000_000

	// GenesisReward is the subsidy paid by block 0, 32.375 BTPC.
	GenesisReward = 3_237_500_000

	// TailReward is the fixed subsidy floor every block's reward is
	// clamped to once the linear decay drops below it: 0.5 BTPC.
	TailReward = 50_000_000

	// DecayEndHeight is the decay's slope denominator, giving a
	// 24-year schedule at BTPC's 600-second target block spacing
	// (24 * 365 * 24 * 3600 / 600).
	DecayEndHeight = 1_261_440
)

// BlockSubsidy returns the subsidy, in smallest units, paid by the
// coinbase transaction of the block at the given height: the literal
// spec.md §9 formula reward(h) = max(TailReward, GenesisReward *
// (1 - h/DecayEndHeight)), computed in fixed-point base units with the
// division rounded to the nearest unit, ties to even.
func BlockSubsidy(height uint64) uint64 {
	// decayed = round(GenesisReward * h / DecayEndHeight); reward(h) is
	// GenesisReward - decayed, floored at TailReward. A height large
	// enough to decay past GenesisReward-TailReward is always floored,
	// so the uint64 subtraction below never underflows.
	numerator := GenesisReward * height
	decayed := numerator / DecayEndHeight
	remainder := numerator % DecayEndHeight

	// Round to nearest, ties to even: compare 2*remainder against the
	// divisor.
	doubled := remainder * 2
	if doubled > DecayEndHeight || (doubled == DecayEndHeight && decayed%2 == 1) {
		decayed++
	}

	if decayed >= GenesisReward-TailReward {
		return TailReward
	}
	return GenesisReward - decayed
}
