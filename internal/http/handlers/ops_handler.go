// Operational HTTP handlers.
//
// This file exposes the maintenance flag and the bot liveness status:
//   - GET  /downtime   (poll flag)
//   - POST /downtime   (set flag, admin)
//   - GET  /status     (bot liveness snapshot)
//   - POST /status     (heartbeat, admin)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/orion-relay/internal/services"
)

//
// DTOs
//

// DowntimeResponse carries the flag.
type DowntimeResponse struct {
	Success bool `json:"success" example:"true"`
	Enabled bool `json:"enabled" example:"false"`
}

// SetDowntimeRequest is the JSON payload for setting the flag.
type SetDowntimeRequest struct {
	Enabled *bool `json:"enabled" example:"true"`
	// UpdatedBy names the operator; defaults to "api".
	UpdatedBy string `json:"updatedBy,omitempty" example:"ops"`
}

// StatusResponse wraps the liveness snapshot.
type StatusResponse struct {
	Success bool `json:"success" example:"true"`
	services.StatusSnapshot
}

//
// Handlers
//

// GetDowntime godoc
// @ID          getDowntime
// @Summary     Get the downtime flag
// @Tags        Operations
// @Produce     json
// @Success     200  {object}  handlers.DowntimeResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /downtime [get]
func (h *Handlers) GetDowntime(c *gin.Context) {
	enabled, err := h.downtime.Get(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, DowntimeResponse{Success: true, Enabled: enabled})
}

// SetDowntime godoc
// @ID          setDowntime
// @Summary     Set the downtime flag
// @Description Stores the flag (last writer wins) and notifies the game backend best-effort. A failed notification does not fail the request.
// @Tags        Operations
// @Accept      json
// @Produce     json
//
// @Param       X-Admin-Key  header  string  true  "Admin key"
// @Param       body         body    handlers.SetDowntimeRequest  true  "Flag payload"
//
// @Success     200  {object}  handlers.DowntimeResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /downtime [post]
func (h *Handlers) SetDowntime(c *gin.Context) {
	var req SetDowntimeRequest
	if !bindJSON(c, &req, "enabled (boolean) is required") {
		return
	}
	if req.Enabled == nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "enabled (boolean) is required")
		return
	}
	by := strings.TrimSpace(req.UpdatedBy)
	if by == "" {
		by = apiActor
	}
	enabled, err := h.downtime.Set(c.Request.Context(), *req.Enabled, by)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, DowntimeResponse{Success: true, Enabled: enabled})
}

// GetStatus godoc
// @ID          getStatus
// @Summary     Bot liveness
// @Description The bot is online while its last heartbeat is younger than the heartbeat timeout.
// @Tags        Operations
// @Produce     json
// @Success     200  {object}  handlers.StatusResponse
// @Router      /status [get]
func (h *Handlers) GetStatus(c *gin.Context) {
	ok(c, http.StatusOK, StatusResponse{Success: true, StatusSnapshot: h.status.Snapshot()})
}

// PostStatus godoc
// @ID          postStatus
// @Summary     Record a heartbeat
// @Tags        Operations
// @Accept      json
// @Produce     json
//
// @Param       X-Admin-Key  header  string  true  "Admin key"
// @Param       body         body    services.Heartbeat  true  "Heartbeat"
//
// @Success     200  {object}  handlers.StatusResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /status [post]
func (h *Handlers) PostStatus(c *gin.Context) {
	var hb services.Heartbeat
	if !bindJSON(c, &hb, "invalid JSON body") {
		return
	}
	if hb.PingMS < 0 || hb.UptimeSeconds < 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "ping and uptime must not be negative")
		return
	}
	h.status.Beat(hb)
	ok(c, http.StatusOK, StatusResponse{Success: true, StatusSnapshot: h.status.Snapshot()})
}
