// Package errkind implements the error taxonomy of spec.md §7: typed
// kinds a caller (wallet UI, RPC client, peer supervisor) can switch on,
// rather than parsing message strings. Grounded on consensus/ruleerror.go's
// ErrorCode/RuleError split (a typed code plus a human description), widened
// from consensus-only violations to the full validation/signing/network/
// system taxonomy.
package errkind

import "fmt"

// Kind identifies the category of a Error, letting callers branch on
// outcome (retry, surface to user, shut down) without string matching.
type Kind int

const (
	// Validation kinds.
	InvalidAddress Kind = iota
	InvalidAmount
	InsufficientFunds
	UtxoLocked
	UtxoNotFound
	ImmatureCoinbase
	ForkIDMismatch
	MerkleMismatch
	PowInvalid
	TimestampOutOfRange
	DuplicateTx

	// Signing kinds.
	KeyNotFound
	SeedMissing
	SignatureFailed
	WalletLocked
	WalletCorrupted

	// Network kinds.
	NodeUnavailable
	BroadcastFailed
	MempoolFull
	FeeTooLow
	PeerMisbehavior

	// System kinds.
	StorageError
	LockPoisoned
	TimeoutError
	CorruptionError
)

var kindNames = [...]string{
	"InvalidAddress", "InvalidAmount", "InsufficientFunds", "UtxoLocked",
	"UtxoNotFound", "ImmatureCoinbase", "ForkIDMismatch", "MerkleMismatch",
	"PowInvalid", "TimestampOutOfRange", "DuplicateTx",
	"KeyNotFound", "SeedMissing", "SignatureFailed", "WalletLocked",
	"WalletCorrupted",
	"NodeUnavailable", "BroadcastFailed", "MempoolFull", "FeeTooLow",
	"PeerMisbehavior",
	"StorageError", "LockPoisoned", "TimeoutError", "CorruptionError",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Error is a typed, user-surfaceable failure. SuggestedAction, when
// non-empty, is meant for direct display ("restore from backup",
// "increase fee", "wait for peer reconnection") per spec.md §7.
// Recoverable marks a BroadcastFailed error as one the caller may
// retry; nothing in this module retries or backs off on its own. It is
// ignored for every other kind.
type Error struct {
	Kind            Kind
	Message         string
	SuggestedAction string
	Recoverable     bool

	// Available/Required populate InsufficientFunds; MinFeeRate populates
	// FeeTooLow; Score populates PeerMisbehavior. Zero when unused.
	Available uint64
	Required  uint64
	MinFeeRate uint64
	Score      int
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.String()
}

// Is reports whether err is an *Error of kind k, equivalent to
// errkind.Of(err) == k. err itself is inspected; wrapped errors are not
// unwrapped.
func Is(err error, k Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == k
}

// Of extracts the Kind from err, or -1 if err is not an *Error.
func Of(err error) Kind {
	e, ok := err.(*Error)
	if !ok {
		return -1
	}
	return e.Kind
}

// New constructs a plain *Error of the given kind with no suggested
// action attached.
func New(k Kind, message string) *Error {
	return &Error{Kind: k, Message: message}
}

// Newf is New with a formatted message.
func Newf(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// WithAction attaches a suggested_action string to e and returns it, for
// chaining onto New/Newf at the call site.
func (e *Error) WithAction(action string) *Error {
	e.SuggestedAction = action
	return e
}
