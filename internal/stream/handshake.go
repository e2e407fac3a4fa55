package stream

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// RejectMessage is sent to a viewer whose channel selection is invalid.
const RejectMessage = "Invalid channel. Disconnecting...\n"

// maxSelectionSize bounds the first read of a connection.
const maxSelectionSize = 1024

// ErrInvalidChannel is returned for an unparsable or out-of-range selection.
var ErrInvalidChannel = errors.New("invalid channel")

// ParseSelection decodes a decimal channel index and checks it against [0, channels).
func ParseSelection(raw string, channels int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	idx, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidChannel, trimmed)
	}
	if idx < 0 || idx >= channels {
		return 0, fmt.Errorf("%w: %d outside [0, %d)", ErrInvalidChannel, idx, channels)
	}
	return idx, nil
}
