// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2017 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package logger is BTPC's subsystem logging backend: one btclog
// backend shared by every package-level subsystem logger, writing to
// stdout and a pair of rotated log files. Grounded on the teacher's own
// logger/logger.go SubsystemTags/subsystemLoggers pattern, with the
// teacher's in-repo logs package replaced by its real public upstream
// counterpart, github.com/btcsuite/btclog, plus
// github.com/jrick/logrotate/rotator for file rotation.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
)

// logWriter fans log output out to stdout and the write end of the
// initialized log rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	if initiated {
		os.Stdout.Write(p)
		LogRotator.Write(p)
	}
	return len(p), nil
}

// errLogWriter fans error-level log output out to stdout and the
// separate error-log rotator.
type errLogWriter struct{}

func (errLogWriter) Write(p []byte) (n int, err error) {
	if initiated {
		os.Stdout.Write(p)
		ErrLogRotator.Write(p)
	}
	return len(p), nil
}

// Loggers per subsystem. A single backend logger is created and every
// subsystem logger created from it writes to the backend. Loggers must
// not be used before InitLogRotators has run.
var (
	backendLog = btclog.NewBackend([]*btclog.BackendWriter{
		btclog.NewAllLevelsBackendWriter(logWriter{}),
		btclog.NewErrorBackendWriter(errLogWriter{}),
	})

	// LogRotator is the all-levels logging output. It must be closed
	// on application shutdown.
	LogRotator *rotator.Rotator
	// ErrLogRotator is the error-only logging output.
	ErrLogRotator *rotator.Rotator

	btpcLog = backendLog.Logger("BTPC") // node/lifecycle (node/)
	consLog = backendLog.Logger("CONS") // consensus validation (consensus/)
	chmgLog = backendLog.Logger("CHMG") // chain manager (chain/)
	utxoLog = backendLog.Logger("UTXO") // utxo set (utxo/)
	mmplLog = backendLog.Logger("MMPL") // mempool (mempool/)
	storLog = backendLog.Logger("STOR") // storage engine (storage/)
	p2pnLog = backendLog.Logger("P2PN") // p2p protocol (p2p/)
	minrLog = backendLog.Logger("MINR") // mining loop (mining/)
	rpcsLog = backendLog.Logger("RPCS") // rpc method dispatch (node/)
	waltLog = backendLog.Logger("WALT") // wallet send path (node/)
	evtbLog = backendLog.Logger("EVTB") // event bus (eventbus/)

	initiated = false
)

// SubsystemTags is an enum of every BTPC subsystem tag.
var SubsystemTags = struct {
	BTPC,
	CONS,
	CHMG,
	UTXO,
	MMPL,
	STOR,
	P2PN,
	MINR,
	RPCS,
	WALT,
	EVTB string
}{
	BTPC: "BTPC",
	CONS: "CONS",
	CHMG: "CHMG",
	UTXO: "UTXO",
	MMPL: "MMPL",
	STOR: "STOR",
	P2PN: "P2PN",
	MINR: "MINR",
	RPCS: "RPCS",
	WALT: "WALT",
	EVTB: "EVTB",
}

// subsystemLoggers maps each subsystem tag to its associated logger.
var subsystemLoggers = map[string]btclog.Logger{
	SubsystemTags.BTPC: btpcLog,
	SubsystemTags.CONS: consLog,
	SubsystemTags.CHMG: chmgLog,
	SubsystemTags.UTXO: utxoLog,
	SubsystemTags.MMPL: mmplLog,
	SubsystemTags.STOR: storLog,
	SubsystemTags.P2PN: p2pnLog,
	SubsystemTags.MINR: minrLog,
	SubsystemTags.RPCS: rpcsLog,
	SubsystemTags.WALT: waltLog,
	SubsystemTags.EVTB: evtbLog,
}

// BTPCLog, ConsLog, ChainLog, UTXOLog, MempoolLog, StorageLog, P2PLog,
// MiningLog, RPCLog, WalletLog and EventBusLog expose each subsystem's
// logger for use by its package without a map lookup on every call.
var (
	BTPCLog     = btpcLog
	ConsLog     = consLog
	ChainLog    = chmgLog
	UTXOLog     = utxoLog
	MempoolLog  = mmplLog
	StorageLog  = storLog
	P2PLog      = p2pnLog
	MiningLog   = minrLog
	RPCLog      = rpcsLog
	WalletLog   = waltLog
	EventBusLog = evtbLog
)

// InitLogRotators initializes the logging rotators to write logs to
// logFile and errLogFile, creating roll files alongside each. It must
// be called before any subsystem logger is used.
func InitLogRotators(logFile, errLogFile string) {
	initiated = true
	LogRotator = initLogRotator(logFile)
	ErrLogRotator = initLogRotator(errLogFile)
}

func initLogRotator(logFile string) *rotator.Rotator {
	logDir, _ := filepath.Split(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %s\n", err)
		os.Exit(1)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create file rotator: %s\n", err)
		os.Exit(1)
	}
	return r
}

// SetLogLevel sets the logging level for the given subsystem. Invalid
// subsystems are ignored.
func SetLogLevel(subsystemID string, logLevel string) {
	logger, ok := subsystemLoggers[subsystemID]
	if !ok {
		return
	}
	level, _ := btclog.LevelFromString(logLevel)
	logger.SetLevel(level)
}

// SetLogLevels sets every subsystem logger to logLevel.
func SetLogLevels(logLevel string) {
	for subsystemID := range subsystemLoggers {
		SetLogLevel(subsystemID, logLevel)
	}
}

// DirectionString returns "inbound" or "outbound" for a connection,
// used in p2p peer logging.
func DirectionString(inbound bool) string {
	if inbound {
		return "inbound"
	}
	return "outbound"
}

// PickNoun returns the singular or plural form of a noun depending on
// the count n.
func PickNoun(n uint64, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}

// SupportedSubsystems returns a sorted slice of every subsystem tag.
func SupportedSubsystems() []string {
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}
	sort.Strings(subsystems)
	return subsystems
}

// Get returns the logger registered for tag, if any.
func Get(tag string) (logger btclog.Logger, ok bool) {
	logger, ok = subsystemLoggers[tag]
	return
}

// ParseAndSetDebugLevels parses a debug-level spec of either a bare
// level ("info") or a comma-separated list of subsystem=level pairs
// ("CONS=debug,P2PN=trace") and applies it.
func ParseAndSetDebugLevels(debugLevel string) error {
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		if !validLogLevel(debugLevel) {
			return fmt.Errorf("the specified debug level [%s] is invalid", debugLevel)
		}
		SetLogLevels(debugLevel)
		return nil
	}

	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			return fmt.Errorf("the specified debug level contains an invalid subsystem/level pair [%s]", logLevelPair)
		}

		fields := strings.Split(logLevelPair, "=")
		subsysID, logLevel := fields[0], fields[1]

		if _, exists := Get(subsysID); !exists {
			return fmt.Errorf("the specified subsystem [%s] is invalid -- supported subsystems %s",
				subsysID, strings.Join(SupportedSubsystems(), ", "))
		}
		if !validLogLevel(logLevel) {
			return fmt.Errorf("the specified debug level [%s] is invalid", logLevel)
		}
		SetLogLevel(subsysID, logLevel)
	}

	return nil
}

func validLogLevel(logLevel string) bool {
	switch logLevel {
	case "trace", "debug", "info", "warn", "error", "critical":
		return true
	}
	return false
}
