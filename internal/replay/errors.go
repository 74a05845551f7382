package replay

import "errors"

// ErrInvalidOrdering is returned when candles are not strictly increasing in time.
var ErrInvalidOrdering = errors.New("candles are not in deterministic order")
