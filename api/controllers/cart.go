package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/sweetshop-backend/api/validators"
	cartsvc "github.com/angelmondragon/sweetshop-backend/internal/cart"
	"github.com/angelmondragon/sweetshop-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/sweetshop-backend/pkg/errors"
	"github.com/angelmondragon/sweetshop-backend/pkg/logger"
)

const itemIDParam = "itemId"

type addCartItemRequest struct {
	ItemID string `json:"itemId" validate:"required,uuid"`
}

type setCartQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return actorHandler(logg, func(r *http.Request, actor auth.Actor) (*cartsvc.View, error) {
		return svc.Get(r.Context(), actor)
	})
}

// CartAddItem adds one unit of the posted item.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return actorHandler(logg, func(r *http.Request, actor auth.Actor) (*cartsvc.View, error) {
		var body addCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		itemID, err := uuid.Parse(body.ItemID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid itemId")
		}
		return svc.AddItem(r.Context(), actor, itemID)
	})
}

// CartSetQuantity sets a line's quantity; zero removes the line.
func CartSetQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return actorHandler(logg, func(r *http.Request, actor auth.Actor) (*cartsvc.View, error) {
		itemID, err := validators.ParseUUIDParam(r, itemIDParam)
		if err != nil {
			return nil, err
		}
		var body setCartQuantityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}
		return svc.SetQuantity(r.Context(), actor, itemID, *body.Quantity)
	})
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return actorHandler(logg, func(r *http.Request, actor auth.Actor) (*cartsvc.View, error) {
		itemID, err := validators.ParseUUIDParam(r, itemIDParam)
		if err != nil {
			return nil, err
		}
		return svc.RemoveItem(r.Context(), actor, itemID)
	})
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return actorHandler(logg, func(r *http.Request, actor auth.Actor) (*cartsvc.View, error) {
		return svc.Clear(r.Context(), actor)
	})
}
