package checkout

import (
	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sweetshop-backend/pkg/errors"
)

type attempt struct {
	state enums.CheckoutState
}

func newAttempt() *attempt {
	return &attempt{state: enums.CheckoutStateIdle}
}

func (a *attempt) transition(next enums.CheckoutState) error {
	if !a.state.CanTransition(next) {
		return pkgerrors.Newf(pkgerrors.CodeInternal, "illegal checkout transition %s -> %s", a.state, next)
	}
	a.state = next
	return nil
}
