package controllers

import (
	"net/http"

	"github.com/angelmondragon/sweetshop-backend/internal/checkout"
	"github.com/angelmondragon/sweetshop-backend/pkg/auth"
	"github.com/angelmondragon/sweetshop-backend/pkg/logger"
)

// Checkout purchases the caller's cart in one all-or-nothing step. Rejections
// carry every violating line in error.details.violations.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return actorHandler(logg, func(r *http.Request, actor auth.Actor) (*checkout.Result, error) {
		return svc.Checkout(r.Context(), actor)
	})
}
