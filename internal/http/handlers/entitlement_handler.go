// Entitlement HTTP handlers.
//
// This file exposes the game-facing ownership endpoints:
//   - POST /purchase                        (record a purchase and deliver)
//   - GET  /owned/{userId}                  (list owned product ids)
//   - POST /whitelist/check                 (owned? by devProductId)
//   - GET|POST /whitelist/checkByProductId  (owned? by product id)
//
// Idempotency:
// If the client supplies an Idempotency-Key header, the first completed
// purchase response is stored and replayed verbatim for retries with the same
// key, with `Idempotency-Replayed: true`. A replay never redelivers.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/orion-relay/internal/http/middleware"
	"github.com/tbourn/orion-relay/internal/repo"
	"github.com/tbourn/orion-relay/internal/services"
	"github.com/tbourn/orion-relay/internal/utils"
)

//
// DTOs
//

// PurchaseRequest is the JSON payload sent by the game when a developer
// product is bought.
type PurchaseRequest struct {
	UserID       FlexID `json:"userId" swaggertype:"string" example:"500100"`
	DevProductID FlexID `json:"devProductId" swaggertype:"string" example:"DP1"`
}

// PurchaseResponse reports ownership and delivery. Success is true whenever
// ownership was recorded, also when the delivery failed.
type PurchaseResponse struct {
	Success    bool   `json:"success" example:"true"`
	ProductID  string `json:"productId"`
	NewlyOwned bool   `json:"newlyOwned" example:"true"`
	Delivered  bool   `json:"delivered" example:"true"`
	// DeliveryError is set when Delivered is false.
	DeliveryError *ErrorDetail `json:"deliveryError,omitempty"`
}

// ErrorDetail is a code and message pair nested in a success body.
type ErrorDetail struct {
	Code    string `json:"code" example:"delivery_failed"`
	Message string `json:"message"`
}

// OwnedResponse lists owned product ids.
type OwnedResponse struct {
	Success bool     `json:"success" example:"true"`
	Owned   []string `json:"owned"`
}

// WhitelistCheckRequest asks whether userId owns devProductId.
type WhitelistCheckRequest struct {
	UserID       FlexID `json:"userId" swaggertype:"string" example:"500100"`
	DevProductID FlexID `json:"devProductId" swaggertype:"string" example:"DP1"`
}

// WhitelistByProductRequest asks whether userId owns productId.
type WhitelistByProductRequest struct {
	UserID    FlexID `json:"userId" form:"userId" swaggertype:"string" example:"500100"`
	ProductID string `json:"productId" form:"productId" example:"4a0c7f9e-1f8a-4a55-9d6c-2b1f3c1d9e77"`
}

// AllowedResponse is the whitelist verdict.
type AllowedResponse struct {
	Success bool `json:"success" example:"true"`
	Allowed bool `json:"allowed" example:"true"`
}

//
// Handlers
//

// Purchase godoc
// @ID          purchase
// @Summary     Record a purchase and deliver
// @Description Grants the product to the buyer and delivers its file to the linked chat account. Every purchase delivers, also for already owned products. Returns 202 when ownership was recorded but delivery failed.
// @Tags        Entitlements
// @Accept      json
// @Produce     json
//
// @Param       X-Api-Key        header  string  false "Game API key (when configured)"
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(purchase-7a8d9f4c)
// @Param       body             body    handlers.PurchaseRequest  true  "Purchase payload"
//
// @Success     200  {object}  handlers.PurchaseResponse  "Owned and delivered"
// @Success     202  {object}  handlers.PurchaseResponse  "Owned, delivery failed"
// @Header      200  {string}  Idempotency-Replayed  "true when served from a stored response"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found"
// @Failure     422  {object}  handlers.ErrorResponse  "Account not linked"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /purchase [post]
func (h *Handlers) Purchase(c *gin.Context) {
	ctx := c.Request.Context()

	// Idempotency (replay path).
	idemKey, hasKey := middleware.GetIdempotencyKey(c)
	scope := middleware.GetIdempotencyScope(c)
	if hasKey && h.db != nil {
		if rec, err := repo.GetIdempotency(ctx, h.db, scope, idemKey, time.Now().UTC()); err == nil {
			c.Header("Idempotency-Replayed", "true")
			c.Data(rec.Status, rec.ContentType, rec.Body)
			return
		}
	}

	var req PurchaseRequest
	if !bindJSON(c, &req, "invalid JSON body") {
		return
	}
	uid := req.UserID.String()
	if !utils.IsDigits(uid) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "userId must be numeric")
		return
	}

	res, err := h.ents.Purchase(ctx, uid, req.DevProductID.String())
	if err != nil {
		failErr(c, err)
		return
	}

	status := http.StatusOK
	body := PurchaseResponse{
		Success:    true,
		ProductID:  res.Product.ID,
		NewlyOwned: res.NewlyOwned,
		Delivered:  res.Delivered(),
	}
	if !body.Delivered {
		status = http.StatusAccepted
		body.DeliveryError = deliveryDetail(res.DeliveryErr)
	}

	raw, err := json.Marshal(body)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "encode response")
		return
	}

	// Idempotency (store path) – best effort. A 202 is not stored so a retry
	// with the same key attempts delivery again.
	if hasKey && h.db != nil && status == http.StatusOK {
		if _, err := repo.CreateIdempotency(ctx, h.db, scope, idemKey, status, "application/json; charset=utf-8", raw, h.idemTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			middleware.LoggerFrom(c).Warn().Err(err).Str("idempotency_key", idemKey).Msg("idempotency store failed")
		}
	}
	c.Data(status, "application/json; charset=utf-8", raw)
}

func deliveryDetail(err error) *ErrorDetail {
	if err == nil {
		return &ErrorDetail{Code: ErrCodeDeliveryFailed, Message: "delivery was not attempted"}
	}
	_, code := statusFor(err)
	return &ErrorDetail{Code: code, Message: err.Error()}
}

// Owned godoc
// @ID          owned
// @Summary     List owned products
// @Description Returns the ids of every product the game account owns.
// @Tags        Entitlements
// @Produce     json
//
// @Param       userId  path  string  true  "Game account id"  example(500100)
//
// @Success     200  {object}  handlers.OwnedResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /owned/{userId} [get]
func (h *Handlers) Owned(c *gin.Context) {
	uid := strings.TrimSpace(c.Param("userId"))
	if !utils.IsDigits(uid) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "userId must be numeric")
		return
	}
	ids, err := h.ents.ListOwned(c.Request.Context(), uid)
	if err != nil {
		failErr(c, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	ok(c, http.StatusOK, OwnedResponse{Success: true, Owned: ids})
}

// WhitelistCheck godoc
// @ID          whitelistCheck
// @Summary     Check ownership by devProductId
// @Description Unknown products are reported as not allowed.
// @Tags        Entitlements
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.WhitelistCheckRequest  true  "Check payload"
//
// @Success     200  {object}  handlers.AllowedResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /whitelist/check [post]
func (h *Handlers) WhitelistCheck(c *gin.Context) {
	var req WhitelistCheckRequest
	if !bindJSON(c, &req, "invalid JSON body") {
		return
	}
	uid := req.UserID.String()
	if !utils.IsDigits(uid) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "userId must be numeric")
		return
	}
	allowed, err := h.ents.CheckByExternalID(c.Request.Context(), uid, req.DevProductID.String())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, AllowedResponse{Success: true, Allowed: allowed})
}

// WhitelistCheckByProductID godoc
// @ID          whitelistCheckByProductId
// @Summary     Check ownership by product id
// @Description Accepts userId and productId as query parameters (GET) or a JSON body (POST).
// @Tags        Entitlements
// @Accept      json
// @Produce     json
//
// @Param       userId     query  string  false "Game account id (GET)"
// @Param       productId  query  string  false "Product id (GET)"
// @Param       body       body   handlers.WhitelistByProductRequest  false  "Check payload (POST)"
//
// @Success     200  {object}  handlers.AllowedResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /whitelist/checkByProductId [get]
// @Router      /whitelist/checkByProductId [post]
func (h *Handlers) WhitelistCheckByProductID(c *gin.Context) {
	var req WhitelistByProductRequest
	if c.Request.Method == http.MethodGet {
		req.UserID = FlexID(strings.TrimSpace(c.Query("userId")))
		req.ProductID = c.Query("productId")
	} else if !bindJSON(c, &req, "invalid JSON body") {
		return
	}
	uid := req.UserID.String()
	if !utils.IsDigits(uid) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "userId must be numeric")
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		failErr(c, services.Invalidf("productId is required"))
		return
	}
	allowed, err := h.ents.CheckByProductID(c.Request.Context(), uid, req.ProductID)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, AllowedResponse{Success: true, Allowed: allowed})
}
