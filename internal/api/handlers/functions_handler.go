// internal/api/handlers/functions_handler.go
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"recycle-pickup-api-server/internal/api/middleware"
	"recycle-pickup-api-server/internal/apperr"
	"recycle-pickup-api-server/internal/models"
	"recycle-pickup-api-server/internal/services"

	"github.com/gin-gonic/gin"
)

// callable is one named function reachable through POST /functions/:name.
type callable func(ctx context.Context, caller models.Caller, data json.RawMessage) (any, error)

type pickupIDRequest struct {
	PickupID string `json:"pickupId"`
}

type completePickupRequest struct {
	PickupID      string `json:"pickupId"`
	ProofPhotoURL string `json:"proofPhotoURL"`
}

type getLocationsRequest struct {
	IDs []string `json:"ids"`
}

// FunctionsHandler serves the callable functions. Requests are
// {"data": ...}; responses are {"result": ...} or
// {"error": {"status": "<code>", "message": "..."}}.
type FunctionsHandler struct {
	Pickups   *services.PickupService
	Profiles  *services.ProfileService
	functions map[string]callable
}

func NewFunctionsHandler(pickups *services.PickupService, profiles *services.ProfileService) *FunctionsHandler {
	h := &FunctionsHandler{Pickups: pickups, Profiles: profiles}
	h.functions = map[string]callable{
		"createPickup": func(ctx context.Context, caller models.Caller, data json.RawMessage) (any, error) {
			req, err := decode[models.CreatePickupRequest](data)
			if err != nil {
				return nil, err
			}
			return pickups.CreatePickup(ctx, caller, req)
		},
		"acceptPickup":   h.byPickupID(pickups.AcceptPickup),
		"startPickup":    h.byPickupID(pickups.StartPickup),
		"cancelPickup":   h.byPickupID(pickups.CancelPickup),
		"completePickup": h.completePickup,
		"updateProfile": func(ctx context.Context, caller models.Caller, data json.RawMessage) (any, error) {
			req, err := decode[services.UpdateProfileRequest](data)
			if err != nil {
				return nil, err
			}
			return profiles.UpdateProfile(ctx, caller, req)
		},
		"setAccountType": func(ctx context.Context, caller models.Caller, data json.RawMessage) (any, error) {
			req, err := decode[services.SetAccountTypeRequest](data)
			if err != nil {
				return nil, err
			}
			return profiles.SetAccountType(ctx, caller, req)
		},
		"saveLocation": func(ctx context.Context, caller models.Caller, data json.RawMessage) (any, error) {
			req, err := decode[services.SaveLocationRequest](data)
			if err != nil {
				return nil, err
			}
			return profiles.SaveLocation(ctx, caller, req)
		},
		"getLocations": func(ctx context.Context, caller models.Caller, data json.RawMessage) (any, error) {
			req, err := decode[getLocationsRequest](data)
			if err != nil {
				return nil, err
			}
			return profiles.GetLocations(ctx, caller, req.IDs)
		},
	}
	return h
}

func (h *FunctionsHandler) byPickupID(fn func(ctx context.Context, caller models.Caller, id string) (*models.Pickup, error)) callable {
	return func(ctx context.Context, caller models.Caller, data json.RawMessage) (any, error) {
		req, err := decode[pickupIDRequest](data)
		if err != nil {
			return nil, err
		}
		return fn(ctx, caller, req.PickupID)
	}
}

func (h *FunctionsHandler) completePickup(ctx context.Context, caller models.Caller, data json.RawMessage) (any, error) {
	req, err := decode[completePickupRequest](data)
	if err != nil {
		return nil, err
	}
	return h.Pickups.CompletePickup(ctx, caller, req.PickupID, req.ProofPhotoURL)
}

// Call dispatches POST /functions/:name.
func (h *FunctionsHandler) Call(c *gin.Context) {
	name := c.Param("name")
	fn, ok := h.functions[name]
	if !ok {
		callError(c, apperr.New(apperr.CodeNotFound, "function %s not found", name))
		return
	}

	var req struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		callError(c, apperr.Wrap(apperr.CodeInvalidArgument, err, "request body must be {\"data\": ...}"))
		return
	}

	caller, err := h.Profiles.Caller(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		callError(c, err)
		return
	}

	result, err := fn(c.Request.Context(), caller, req.Data)
	if err != nil {
		callError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

func callError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	if code == apperr.CodeInternal || code == apperr.CodeUnavailable {
		log.Printf("Function %s failed: %v", c.Param("name"), err)
	}
	c.JSON(apperr.HTTPStatus(code), gin.H{"error": gin.H{
		"status":  code,
		"message": apperr.MessageOf(err),
	}})
}

// decode reads a function payload. A missing payload decodes to the zero value.
func decode[T any](data json.RawMessage) (T, error) {
	var v T
	if len(data) == 0 || string(data) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, apperr.Wrap(apperr.CodeInvalidArgument, err, "invalid payload")
	}
	return v, nil
}
