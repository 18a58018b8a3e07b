package markov

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable wraps every connection or query failure from the store.
// A query that matches no rows is not an error.
var ErrStoreUnavailable = errors.New("markov: store unavailable")

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
