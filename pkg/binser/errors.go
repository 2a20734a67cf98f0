package binser

import (
	"errors"
	"fmt"
)

// Common errors. ErrKeyTooLong, ErrTruncated and ErrInconsistent all match
// ErrStructural under errors.Is.
var (
	ErrStructural       = errors.New("binser: structural error")
	ErrKeyTooLong       = fmt.Errorf("%w: key too long", ErrStructural)
	ErrTruncated        = fmt.Errorf("%w: truncated input", ErrStructural)
	ErrInconsistent     = fmt.Errorf("%w: inconsistent data", ErrStructural)
	ErrUnknownType      = errors.New("binser: unknown type tag")
	ErrMaxDepthExceeded = errors.New("binser: max depth exceeded")
)
