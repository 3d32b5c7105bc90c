package consensus

import (
	"math/big"

	"github.com/Shion-Kamoto/BTPC-sub008/domain"
	"github.com/Shion-Kamoto/BTPC-sub008/netparams"
)

// CompactToBig expands a block header's compact "bits" encoding into its
// full big.Int target. The encoding is Bitcoin's classic floating-point
// form: the high byte is an exponent, the low three bytes a mantissa.
// Grounded on the checkProofOfWork/util.CompactToBig usage pattern in
// domain/consensus/processes/blockvalidator/proof_of_work.go.
func CompactToBig(bits uint32) *big.Int {
	mantissa := bits & 0x007fffff
	exponent := uint(bits >> 24)

	var target big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		target.SetInt64(int64(mantissa))
	} else {
		target.SetInt64(int64(mantissa))
		target.Lsh(&target, 8*(exponent-3))
	}

	if bits&0x00800000 != 0 {
		target.Neg(&target)
	}
	return &target
}

// BigToCompact converts a big.Int target into the compact "bits"
// encoding used in BlockHeader.Bits.
func BigToCompact(target *big.Int) uint32 {
	if target.Sign() == 0 {
		return 0
	}

	var mantissa uint32
	exponent := uint(len(target.Bytes()))

	if exponent <= 3 {
		mantissa = uint32(target.Bits()[0])
		mantissa <<= 8 * (3 - exponent)
	} else {
		tmp := new(big.Int).Set(target)
		tmp.Rsh(tmp, 8*(exponent-3))
		mantissa = uint32(tmp.Bits()[0])
	}

	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	compact := uint32(exponent<<24) | mantissa
	if target.Sign() < 0 {
		compact |= 0x00800000
	}
	return compact
}

// HashToBig converts a chainhash-ordered hash into a big.Int for target
// comparison. chainhash.Hash is ordered lexicographic big-endian (see
// its Less/String methods, and spec.md §3): the hash's own byte order
// already matches big.Int.SetBytes's big-endian convention, so no
// reversal is needed or correct here.
func HashToBig(buf []byte) *big.Int {
	return new(big.Int).SetBytes(buf)
}

// CheckProofOfWork verifies that header's bits lie within [minimum,
// params.PowLimit] and that its block hash, interpreted as a big
// integer, does not exceed the target those bits encode.
func CheckProofOfWork(header *domain.BlockHeader, params *netparams.Params) error {
	target := CompactToBig(header.Bits)

	if target.Sign() <= 0 {
		return ruleError(ErrInvalidProofOfWork, "block target difficulty is non-positive")
	}
	if target.Cmp(params.PowLimit) > 0 {
		return ruleError(ErrUnexpectedDifficulty, "block target difficulty is higher than the network maximum")
	}

	hash := header.BlockHash()
	hashNum := HashToBig(hash[:])
	if hashNum.Cmp(target) > 0 {
		return ruleError(ErrHighHash, "block hash does not satisfy claimed target difficulty")
	}
	return nil
}

// blockProof is 2^512 / (target+1), the approximate number of hash
// attempts expected to produce a hash at or below target — a block's
// individual contribution to cumulative chain work.
func blockProof(bits uint32) *big.Int {
	target := CompactToBig(bits)
	if target.Sign() <= 0 {
		return big.NewInt(0)
	}
	// denominator = target + 1
	denominator := new(big.Int).Add(target, big.NewInt(1))
	numerator := new(big.Int).Lsh(big.NewInt(1), 512)
	return numerator.Div(numerator, denominator)
}

// BlockProof returns the individual work contribution of a block with
// the given compact bits, per spec.md §4.4's cumulative-work tip rule.
func BlockProof(bits uint32) *big.Int {
	return blockProof(bits)
}

// CumulativeWork sums the individual work contributions of headerBits
// in order, used to compare two candidate chain tips.
func CumulativeWork(headerBits []uint32) *big.Int {
	total := big.NewInt(0)
	for _, bits := range headerBits {
		total.Add(total, blockProof(bits))
	}
	return total
}

// Difficulty expresses bits as a ratio against params.PowLimit, the
// conventional "difficulty 1" baseline: params.PowLimit's target
// divided by the current target. Used only for getblockchaininfo/
// getmininginfo display, never for consensus decisions.
func Difficulty(bits uint32, params *netparams.Params) float64 {
	target := CompactToBig(bits)
	if target.Sign() <= 0 {
		return 0
	}
	ratio := new(big.Rat).SetFrac(params.PowLimit, target)
	f, _ := ratio.Float64()
	return f
}
