package selfelf

import "errors"

// ErrInvalidFakeSelf is returned when the stream's magic doesn't match, or
// the mode byte marks it as a real (encrypted) SELF rather than a fake one.
var ErrInvalidFakeSelf = errors.New("selfelf: not a valid fake SELF")
