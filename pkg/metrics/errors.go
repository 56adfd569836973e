package metrics

import (
	"errors"
)

// Sentinel kinds for metrics errors.
var (
	ErrUnknownAnalysisSource = errors.New("unknown analysis source")
)
