// Catalog HTTP handlers.
//
// This file exposes REST endpoints for products:
//   - POST /addProduct      (create, admin)
//   - POST /removeProduct   (delete + cascade entitlements, admin)
//   - GET  /products        (list summaries, optional ?hub=, ETag support)
//
// File payloads arrive base64-encoded in JSON and are decoded before they
// reach the catalog service. Listings never include payload bytes.
package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/orion-relay/internal/domain"
	"github.com/tbourn/orion-relay/internal/repo"
	"github.com/tbourn/orion-relay/internal/services"
)

// apiActor is recorded as the actor of writes made over HTTP.
const apiActor = "api"

//
// DTOs
//

// AddProductRequest is the JSON payload for creating a product.
type AddProductRequest struct {
	Hub          string `json:"hub" example:"Orion"`
	Name         string `json:"name" example:"Neon Sword"`
	Description  string `json:"description" example:"A glowing blade"`
	ImageID      FlexID `json:"imageId" swaggertype:"string" example:"1234567"`
	DevProductID FlexID `json:"devProductId" swaggertype:"string" example:"DP1"`
	FileName     string `json:"fileName" example:"NeonSword.rbxm"`
	// FileData is the file content, standard base64.
	FileData string `json:"fileData" example:"UEsDBAo="`
}

// RemoveProductRequest is the JSON payload for deleting a product.
type RemoveProductRequest struct {
	ProductID string `json:"productId" example:"4a0c7f9e-1f8a-4a55-9d6c-2b1f3c1d9e77"`
}

// ProductSummary is a product without its payload.
type ProductSummary struct {
	ID           string `json:"id"`
	Hub          string `json:"hub"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	ImageID      string `json:"imageId"`
	DevProductID string `json:"devProductId"`
	FileName     string `json:"fileName"`
}

// ProductResponse wraps a created product.
type ProductResponse struct {
	Success   bool           `json:"success" example:"true"`
	ProductID string         `json:"productId" example:"3f1c9a2e-5b7d-4e8f-9a01-23456789abcd"`
	Product   ProductSummary `json:"product"`
}

// ListProductsResponse wraps the catalog listing.
type ListProductsResponse struct {
	Success  bool             `json:"success" example:"true"`
	Products []ProductSummary `json:"products"`
}

// RemoveProductResponse reports a deletion.
type RemoveProductResponse struct {
	Success bool `json:"success" example:"true"`
	// RemovedEntitlements counts the ownership rows deleted with the product.
	RemovedEntitlements int64 `json:"removedEntitlements" example:"3"`
}

func summarize(p *domain.Product) ProductSummary {
	return ProductSummary{
		ID:           p.ID,
		Hub:          p.Hub,
		Name:         p.Name,
		Description:  p.Description,
		ImageID:      p.ImageID,
		DevProductID: p.ExternalID,
		FileName:     p.FileName,
	}
}

// decodeFile accepts padded or unpadded standard base64.
func decodeFile(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

//
// Handlers
//

// AddProduct godoc
// @ID          addProduct
// @Summary     Create a product
// @Description Creates a catalog product. All fields are required; hub is matched case-insensitively against the configured hubs.
// @Tags        Catalog
// @Accept      json
// @Produce     json
//
// @Param       X-Admin-Key  header  string  true  "Admin key"
// @Param       body         body    handlers.AddProductRequest  true  "Product payload"
//
// @Success     201  {object}  handlers.ProductResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     409  {object}  handlers.ErrorResponse  "Duplicate devProductId"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /addProduct [post]
func (h *Handlers) AddProduct(c *gin.Context) {
	var req AddProductRequest
	if !bindJSON(c, &req, "invalid JSON body") {
		return
	}
	data, err := decodeFile(req.FileData)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "fileData must be base64")
		return
	}

	p, err := h.catalog.Create(c.Request.Context(), services.ProductInput{
		Hub:         req.Hub,
		Name:        req.Name,
		Description: req.Description,
		ImageID:     req.ImageID.String(),
		ExternalID:  req.DevProductID.String(),
		FileName:    req.FileName,
		FileData:    data,
	}, apiActor)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, ProductResponse{Success: true, ProductID: p.ID, Product: summarize(p)})
}

// RemoveProduct godoc
// @ID          removeProduct
// @Summary     Delete a product
// @Description Deletes a product and every entitlement that references it.
// @Tags        Catalog
// @Accept      json
// @Produce     json
//
// @Param       X-Admin-Key  header  string  true  "Admin key"
// @Param       body         body    handlers.RemoveProductRequest  true  "Product id"
//
// @Success     200  {object}  handlers.RemoveProductResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Product not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /removeProduct [post]
func (h *Handlers) RemoveProduct(c *gin.Context) {
	var req RemoveProductRequest
	if !bindJSON(c, &req, "invalid JSON body") {
		return
	}
	n, err := h.catalog.Remove(c.Request.Context(), req.ProductID, apiActor)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, RemoveProductResponse{Success: true, RemovedEntitlements: n})
}

// ListProducts godoc
// @ID          listProducts
// @Summary     List products
// @Description Returns product summaries, optionally for one hub. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Catalog
// @Produce     json
//
// @Param       hub            query   string  false "Hub filter (case-insensitive)"  example(Orion)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {object} handlers.ListProductsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Unknown hub"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /products [get]
func (h *Handlers) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()
	hub := strings.TrimSpace(c.Query("hub"))
	if hub != "" {
		norm, err := h.catalog.NormalizeHub(hub)
		if err != nil {
			failErr(c, err)
			return
		}
		hub = norm
	}

	// ETag pre-check (best effort).
	if h.db != nil {
		count, maxTS, err := repo.ProductsStats(ctx, h.db, hub)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.UnixNano()
			}
			etag := fmt.Sprintf(`W/"products:%s:%d:%d"`, hub, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, err := h.catalog.List(ctx, hub)
	if err != nil {
		failErr(c, err)
		return
	}
	out := make([]ProductSummary, 0, len(items))
	for i := range items {
		out = append(out, summarize(&items[i]))
	}
	ok(c, http.StatusOK, ListProductsResponse{Success: true, Products: out})
}
