package uri

import "errors"

// ErrBadScheme is returned by Parse when the URI scheme is neither
// "stomp" nor "stomp+ssl".
var ErrBadScheme = errors.New("uri: scheme must be stomp or stomp+ssl")
