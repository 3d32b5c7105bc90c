package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcutil"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/Shion-Kamoto/BTPC-sub008/crypto"
	"github.com/Shion-Kamoto/BTPC-sub008/logger"
	"github.com/Shion-Kamoto/BTPC-sub008/netparams"
)

const (
	appName            = "btpcd"
	defaultLogFilename = "btpcd.log"
	defaultErrFilename = "btpcd_err.log"
)

var (
	defaultHomeDir = btcutil.AppDataDir(appName, false)
	defaultDataDir = filepath.Join(defaultHomeDir, "data")
	defaultLogDir  = filepath.Join(defaultHomeDir, "logs")
)

// config holds btpcd's command-line/daemon configuration, composed the
// way cmd/kaspawallet/config.go composes its NetworkFlags: a set of
// mutually exclusive network-selection switches plus per-command
// options, resolved into a single netparams.Params before use.
type config struct {
	DataDir    string `long:"datadir" description:"Directory to store data"`
	LogDir     string `long:"logdir" description:"Directory to log output"`
	Listen     string `long:"listen" description:"Address to listen for P2P connections (host:port). Empty disables inbound listening"`
	NoP2P      bool   `long:"nop2p" description:"Disable the P2P manager entirely (standalone/local-only mode)"`
	DebugLevel string `long:"debuglevel" short:"d" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- or a comma-separated subsystem=level list" default:"info"`

	MineToKeyFile string `long:"minetokeyfile" description:"Path to a file containing a hex-encoded ML-DSA public key; when set, btpcd mines to this key"`
	MinerWorkers  int    `long:"minerworkers" description:"Number of miner worker goroutines" default:"1"`

	Testnet bool `long:"testnet" description:"Use the test network"`
	Regtest bool `long:"regtest" description:"Use the regression test network"`

	minerPublicKey []byte
	netParams      *netparams.Params
}

func loadConfig() (*config, error) {
	cfg := &config{
		DataDir: defaultDataDir,
		LogDir:  defaultLogDir,
	}

	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, err
	}

	if cfg.Testnet && cfg.Regtest {
		return nil, errors.New("testnet and regtest cannot both be specified")
	}
	switch {
	case cfg.Testnet:
		cfg.netParams = netparams.TestnetParams
	case cfg.Regtest:
		cfg.netParams = netparams.RegtestParams
	default:
		cfg.netParams = netparams.MainnetParams
	}

	cfg.DataDir = filepath.Join(cfg.DataDir, cfg.netParams.Name)
	cfg.LogDir = filepath.Join(cfg.LogDir, cfg.netParams.Name)

	if cfg.MineToKeyFile != "" {
		raw, err := os.ReadFile(cfg.MineToKeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "reading minetokeyfile")
		}
		pubKey, err := hex.DecodeString(string(trimNewline(raw)))
		if err != nil {
			return nil, errors.Wrap(err, "minetokeyfile does not contain valid hex")
		}
		if len(pubKey) != crypto.PublicKeySize {
			return nil, fmt.Errorf("minetokeyfile public key is %d bytes, want %d", len(pubKey), crypto.PublicKeySize)
		}
		cfg.minerPublicKey = pubKey
	}

	logger.InitLogRotators(
		filepath.Join(cfg.LogDir, defaultLogFilename),
		filepath.Join(cfg.LogDir, defaultErrFilename),
	)
	if err := logger.ParseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return nil, err
	}

	return cfg, nil
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
