package billable

import "errors"

var (
	ErrNoGatewayCustomer = errors.New("entity has no gateway customer")
	ErrMissingEmail      = errors.New("billing email is required to create a gateway customer")
)
