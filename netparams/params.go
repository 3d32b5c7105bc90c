// Package netparams defines the per-network constants that bind BTPC's
// consensus rules to a concrete chain: genesis block, PoW limit, magic
// bytes, fork id, address prefix and retarget schedule. Grounded on
// dagconfig/params.go and dagconfig/genesis.go, generalized from a
// DAG's per-network checkpoint/deployment scaffolding down to the
// single-chain parameter set spec.md §6 ("Genesis") requires.
package netparams

import (
	"math/big"

	"github.com/Shion-Kamoto/BTPC-sub008/chainhash"
	"github.com/Shion-Kamoto/BTPC-sub008/domain"
)

// Network identifies one of BTPC's three networks.
type Network uint8

const (
	Mainnet Network = iota
	Testnet
	Regtest
)

func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	case Regtest:
		return "regtest"
	default:
		return "unknown"
	}
}

// Magic is the 4-byte network identifier prefixed to every P2P message,
// per spec.md §4.8/§6.
type Magic [4]byte

// Params bundles the constants that distinguish one BTPC network from
// another. Exactly one Params value exists per Network; each is a
// package-level variable below (MainnetParams, TestnetParams,
// RegtestParams), looked up via ForNetwork.
type Params struct {
	Network       Network
	Name          string
	Magic         Magic
	DefaultPort   string
	ForkID        domain.ForkID
	AddressPrefix domain.NetworkPrefix

	// PowLimit is the highest (easiest) proof-of-work target permitted
	// on this network, expressed as the uncompacted big.Int value.
	PowLimit *big.Int
	// PowLimitBits is PowLimit in its compact ("bits") representation.
	PowLimitBits uint32

	// RetargetInterval is the number of blocks between difficulty
	// retargets (spec.md §4.4): 2016.
	RetargetInterval int64
	// TargetTimespan is the expected wall-clock duration of
	// RetargetInterval blocks at the target block rate: 2016 * 600s.
	TargetTimespanSeconds int64
	// TargetBlockTimeSeconds is the intended spacing between blocks.
	TargetBlockTimeSeconds int64

	GenesisBlock *domain.Block
	GenesisHash  chainhash.Hash
}

// genesisBlock builds the hard-coded genesis block for a network: one
// coinbase transaction whose single output pays zero to an empty
// address, carrying coinbaseMessage (truncated to MaxCoinbaseDataLen)
// as its coinbase data, under a header with the given timestamp, bits
// and nonce. The nonce is used as given; no search is made for one
// that satisfies bits.
//
// Grounded on dagconfig/genesis.go's genesisCoinbaseTx construction,
// adapted to BTPC's no-script output model.
func genesisBlock(coinbaseMessage string, timestamp uint64, bits uint32, nonce uint64, forkID domain.ForkID) *domain.Block {
	data := []byte(coinbaseMessage)
	if len(data) > domain.MaxCoinbaseDataLen {
		data = data[:domain.MaxCoinbaseDataLen]
	}

	coinbase := &domain.Transaction{
		Version: 1,
		Inputs: []*domain.TransactionInput{
			{
				PreviousOutpoint: domain.NullOutPoint,
				PublicKey:        data,
			},
		},
		Outputs: []*domain.TransactionOutput{
			{
				Amount:  0, // genesis carries no spendable subsidy
				Address: make([]byte, 0),
			},
		},
		LockTime: 0,
		ForkID:   forkID,
	}

	block := &domain.Block{Transactions: []*domain.Transaction{coinbase}}
	block.Header = domain.BlockHeader{
		Version:    1,
		PrevHash:   chainhash.ZeroHash,
		MerkleRoot: block.ComputeMerkleRoot(),
		Timestamp:  timestamp,
		Bits:       bits,
		Nonce:      nonce,
	}
	return block
}

var mainnetPowLimit = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 224), big.NewInt(1))
var testnetPowLimit = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 232), big.NewInt(1))
var regtestPowLimit = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 239), big.NewInt(1))

func buildParams(network Network, name string, magic Magic, port string, forkID domain.ForkID,
	prefix domain.NetworkPrefix, powLimit *big.Int, powLimitBits uint32,
	genesisMessage string, genesisTimestamp uint64, genesisNonce uint64) *Params {

	p := &Params{
		Network:                network,
		Name:                   name,
		Magic:                  magic,
		DefaultPort:            port,
		ForkID:                 forkID,
		AddressPrefix:          prefix,
		PowLimit:               powLimit,
		PowLimitBits:           powLimitBits,
		RetargetInterval:       2016,
		TargetTimespanSeconds:  2016 * 600,
		TargetBlockTimeSeconds: 600,
	}
	p.GenesisBlock = genesisBlock(genesisMessage, genesisTimestamp, powLimitBits, genesisNonce, forkID)
	p.GenesisHash = p.GenesisBlock.BlockHash()
	return p
}

var (
	// MainnetParams are BTPC's production network parameters.
	MainnetParams = buildParams(
		Mainnet, "mainnet", Magic{0xb1, 0x70, 0xc0, 0xd1}, "8433",
		domain.ForkIDMainnet, domain.PrefixMainnet, mainnetPowLimit, 0x1d00ffff,
		"BTPC genesis — quantum-resistant, Bitcoin-compatible PoW", 1_700_000_000, 0,
	)

	// TestnetParams are BTPC's public test network parameters.
	TestnetParams = buildParams(
		Testnet, "testnet", Magic{0xb2, 0x71, 0xc1, 0xd2}, "18433",
		domain.ForkIDTestnet, domain.PrefixTestnet, testnetPowLimit, 0x1e00ffff,
		"BTPC testnet genesis", 1_700_000_000, 0,
	)

	// RegtestParams are BTPC's local regression-test network
	// parameters: the most permissive PoW limit of the three networks.
	RegtestParams = buildParams(
		Regtest, "regtest", Magic{0xb3, 0x72, 0xc2, 0xd3}, "18444",
		domain.ForkIDRegtest, domain.PrefixRegtest, regtestPowLimit, 0x1e7fffff,
		"BTPC regtest genesis", 1_700_000_000, 0,
	)
)

// ForNetwork returns the registered Params for network.
func ForNetwork(network Network) (*Params, error) {
	switch network {
	case Mainnet:
		return MainnetParams, nil
	case Testnet:
		return TestnetParams, nil
	case Regtest:
		return RegtestParams, nil
	default:
		return nil, errUnknownNetwork(network)
	}
}

type unknownNetworkError struct{ network Network }

func (e *unknownNetworkError) Error() string {
	return "netparams: unknown network " + e.network.String()
}

func errUnknownNetwork(n Network) error { return &unknownNetworkError{network: n} }
