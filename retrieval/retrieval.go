// Package retrieval implements the external order/policy lookup
// collaborator consumed by the workflow. Implementations return complete
// outputs or a distinguishable error, never partial data; any retry or
// backoff policy lives here, outside the decision core.
package retrieval

import "errors"

// ErrMissingUserID is returned when a lookup is attempted without a
// resolved user identifier.
var ErrMissingUserID = errors.New("retrieval requires a user id")

// ErrOrderNotFound is returned when no order exists for the requested
// user/order pair.
var ErrOrderNotFound = errors.New("order not found")
