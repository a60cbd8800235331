package carousel

import (
	"errors"
	"fmt"
)

// ErrContractViolation is wrapped by every error caused by a caller passing
// values outside the documented contract (page counts, indices, intervals).
var ErrContractViolation = errors.New("carousel: contract violation")

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrContractViolation, fmt.Sprintf(format, args...))
}

// ValidateIntent checks i against a carousel of pageCount pages.
func ValidateIntent(i Intent, pageCount int) error {
	if pageCount < 1 {
		return violation("page count %d < 1", pageCount)
	}
	switch in := i.(type) {
	case Jump:
		if in.Target < 0 || in.Target >= pageCount {
			return violation("jump target %d out of range [0, %d)", in.Target, pageCount)
		}
	case Advance:
		if in.PageCount != pageCount {
			return violation("advance page count %d != %d", in.PageCount, pageCount)
		}
	case Retreat:
		if in.PageCount != pageCount {
			return violation("retreat page count %d != %d", in.PageCount, pageCount)
		}
	case Drag, Settle:
	case nil:
		return violation("nil intent")
	default:
		return violation("unknown intent %T", i)
	}
	return nil
}
