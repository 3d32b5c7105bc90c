// btpcctl is a thin, offline debug client for the rpcmodel method set
// (spec.md §6): it opens a node.Node directly against a data directory
// and dispatches one command, printing the JSON result to stdout.
// Grounded on cmd/kaspactl/main.go's command-name-plus-parameters
// shape (postCommand/printAllCommands), with kaspactl's gRPC transport
// dropped: spec.md §1 leaves JSON-RPC/network transport to an external
// collaborator, so this talks to the rpcmodel trait in-process instead
// of over a wire. Because node.New opens the same goleveldb files the
// daemon holds open, btpcctl is meant to run against a stopped btpcd,
// the same constraint sqlite3's own CLI has against a live writer.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/Shion-Kamoto/BTPC-sub008/netparams"
	"github.com/Shion-Kamoto/BTPC-sub008/node"
	"github.com/Shion-Kamoto/BTPC-sub008/rpcmodel"
)

type options struct {
	DataDir string `long:"datadir" description:"Data directory to open (must match the daemon's --datadir for this network)" required:"true"`
	Testnet bool   `long:"testnet" description:"Use the test network"`
	Regtest bool   `long:"regtest" description:"Use the regression test network"`

	Args struct {
		Command string   `positional-arg-name:"command" required:"true"`
		Params  []string `positional-arg-name:"params"`
	} `positional-args:"yes"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil
		}
		return err
	}

	netParams, err := resolveNetwork(opts.Testnet, opts.Regtest)
	if err != nil {
		return err
	}

	// node.New alone (without Start) opens storage but starts no
	// background activity; the process exit after printing the result
	// releases the leveldb handle, so there is nothing to explicitly
	// tear down for a one-shot command.
	n, err := node.New(node.Config{DataDir: opts.DataDir, Params: netParams})
	if err != nil {
		return errors.Wrap(err, "opening node data directory")
	}

	result, err := dispatch(n, opts.Args.Command, opts.Args.Params)
	if err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(encoded))
	return nil
}

func dispatch(n *node.Node, command string, params []string) (interface{}, error) {
	switch command {
	case "getblockchaininfo":
		return n.GetBlockchainInfo(), nil
	case "getblockcount":
		return n.GetBlockCount(), nil
	case "getblockhash":
		height, err := requireUint(params, 0, "height")
		if err != nil {
			return nil, err
		}
		return n.GetBlockHash(rpcmodel.GetBlockHashCmd{Height: height})
	case "getblock":
		hash, err := requireString(params, 0, "hash")
		if err != nil {
			return nil, err
		}
		return n.GetBlock(rpcmodel.GetBlockCmd{Hash: hash})
	case "getblockheader":
		hash, err := requireString(params, 0, "hash")
		if err != nil {
			return nil, err
		}
		return n.GetBlockHeader(rpcmodel.GetBlockHeaderCmd{Hash: hash})
	case "gettransaction":
		txid, err := requireString(params, 0, "txid")
		if err != nil {
			return nil, err
		}
		return n.GetTransaction(rpcmodel.GetTransactionCmd{TxID: txid})
	case "getnetworkinfo":
		return n.GetNetworkInfo(), nil
	case "getpeerinfo":
		return n.GetPeerInfo(), nil
	case "getsyncinfo":
		return n.GetSyncInfo(), nil
	case "getmininginfo":
		return n.GetMiningInfo(), nil
	case "getmempoolinfo":
		return n.GetMempoolInfo(), nil
	case "estimatefee":
		return n.EstimateFee(rpcmodel.EstimateFeeCmd{}), nil
	case "validatetransaction":
		return nil, errors.New("validatetransaction requires a decoded transaction; not supported from the CLI's hex-free surface")
	case "createwallet":
		password, err := requireString(params, 0, "password")
		if err != nil {
			return nil, err
		}
		walletID, address, err := n.CreateWallet(password)
		if err != nil {
			return nil, err
		}
		return struct {
			WalletID string `json:"wallet_id"`
			Address  string `json:"address"`
		}{walletID, address}, nil
	case "createtransaction":
		if len(params) < 5 {
			return nil, errors.New("createtransaction requires wallet_id from to amount fee_rate")
		}
		amount, err := strconv.ParseUint(params[3], 10, 64)
		if err != nil {
			return nil, errors.Wrap(err, "amount")
		}
		feeRate, err := strconv.ParseUint(params[4], 10, 64)
		if err != nil {
			return nil, errors.Wrap(err, "fee_rate")
		}
		return n.CreateTransactionRPC(rpcmodel.CreateTransactionCmd{
			WalletID: params[0], From: params[1], To: params[2], Amount: amount, FeeRate: feeRate,
		})
	case "signtransaction":
		txid, err := requireString(params, 0, "tx_id")
		if err != nil {
			return nil, err
		}
		password, err := requireString(params, 1, "password")
		if err != nil {
			return nil, err
		}
		return n.SignTransactionRPC(rpcmodel.SignTransactionCmd{TxID: txid, Password: password})
	case "broadcasttransaction":
		txid, err := requireString(params, 0, "tx_id")
		if err != nil {
			return nil, err
		}
		return n.BroadcastTransactionRPC(rpcmodel.BroadcastTransactionCmd{TxID: txid})
	case "canceltransaction":
		txid, err := requireString(params, 0, "tx_id")
		if err != nil {
			return nil, err
		}
		return n.CancelTransactionRPC(rpcmodel.CancelTransactionCmd{TxID: txid})
	default:
		return nil, fmt.Errorf("unknown command %q", command)
	}
}

func requireString(params []string, i int, name string) (string, error) {
	if i >= len(params) {
		return "", fmt.Errorf("missing required parameter %q", name)
	}
	return params[i], nil
}

func requireUint(params []string, i int, name string) (uint64, error) {
	s, err := requireString(params, i, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parameter %q", name)
	}
	return v, nil
}

func resolveNetwork(testnet, regtest bool) (*netparams.Params, error) {
	if testnet && regtest {
		return nil, errors.New("testnet and regtest cannot both be specified")
	}
	switch {
	case testnet:
		return netparams.TestnetParams, nil
	case regtest:
		return netparams.RegtestParams, nil
	default:
		return netparams.MainnetParams, nil
	}
}
