package crypto

// Zeroize overwrites b with zeros in place. It is a best-effort
// mitigation: the Go runtime may have copied b's contents elsewhere
// (GC moves, register spills), but it closes the common window where
// key material would otherwise sit in memory for the lifetime of the
// garbage collector's next pass.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
