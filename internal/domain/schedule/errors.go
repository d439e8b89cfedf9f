package schedule

import "errors"

// ErrUpstreamUnavailable marks any failure of the external schedule feed: timeouts,
// transport errors, non-2xx responses and undecodable payloads.
var ErrUpstreamUnavailable = errors.New("schedule provider unavailable")
