package encoder

import "fmt"

// UncompressibleError reports that a decoded instruction has no
// matching compressed encoding, distinct from an outright encoder bug;
// callers fall back to emitting the 32-bit form.
type UncompressibleError struct {
	Mnemonic string
	Reason   string
}

func (e *UncompressibleError) Error() string {
	return fmt.Sprintf("encoder: %s has no compressed form (%s)", e.Mnemonic, e.Reason)
}
