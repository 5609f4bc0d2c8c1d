package protocol

import "errors"

// ErrCollectTimeout is returned by InputCollector implementations when the
// retry budget is exhausted without collecting input. The engine maps it to
// a run-level timeout failure.
var ErrCollectTimeout = errors.New("input collection timed out after retries")
