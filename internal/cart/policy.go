package cart

import (
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/auth"
)

var ErrNotAuthorized = apperr.Forbidden("not authorized to access/modify this cart")

// Decision is the outcome of an allowed cart access.
type Decision struct {
	Owner string
	// Self is set when the principal acts on its own cart. Only then may a
	// read create the cart on demand.
	Self bool
}

// Authorize decides whether p may act on the cart of target. An empty target
// means the principal's own cart.
func Authorize(p auth.Principal, target string) (Decision, error) {
	if target == "" || target == p.ID {
		return Decision{Owner: p.ID, Self: true}, nil
	}
	if p.IsAdmin() {
		return Decision{Owner: target}, nil
	}
	return Decision{}, ErrNotAuthorized
}
