// Account linking HTTP handlers.
//
// This file exposes the game-facing endpoints of the linking handshake:
//   - POST /createCode      (game backend mints a one-time code)
//   - GET  /link/{userId}   (is this game account linked?)
//
// The code itself is redeemed from chat with the verify command.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/orion-relay/internal/utils"
)

// CodeLength is the number of digits in a verification code.
const CodeLength = 6

//
// DTOs
//

// CreateCodeRequest is the JSON payload for minting a verification code.
type CreateCodeRequest struct {
	// UserID is the game account id.
	UserID FlexID `json:"userId" swaggertype:"string" example:"500100"`
	// Code is the 6-digit code shown to the player.
	Code FlexID `json:"code" swaggertype:"string" example:"482913"`
}

// LinkResponse reports the link state of a game account.
type LinkResponse struct {
	Success       bool   `json:"success" example:"true"`
	Linked        bool   `json:"linked" example:"true"`
	ChatAccountID string `json:"chatAccountId,omitempty" example:"900"`
	// DiscordID repeats ChatAccountID for clients that predate the rename.
	DiscordID string `json:"discordId,omitempty" example:"900"`
}

//
// Handlers
//

// CreateCode godoc
// @ID          createCode
// @Summary     Mint a verification code
// @Description Stores a one-time code for a game account. Issuing a code again refreshes its lifetime.
// @Tags        Linking
// @Accept      json
// @Produce     json
//
// @Param       X-Api-Key  header  string  false "Game API key (when configured)"
// @Param       body       body    handlers.CreateCodeRequest  true  "Code payload"
//
// @Success     200  {object}  handlers.OKResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /createCode [post]
func (h *Handlers) CreateCode(c *gin.Context) {
	var req CreateCodeRequest
	if !bindJSON(c, &req, "invalid JSON body") {
		return
	}
	uid, code := req.UserID.String(), req.Code.String()
	if !utils.IsDigits(uid) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "userId must be numeric")
		return
	}
	if !utils.IsCode(code, CodeLength) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "code must be 6 digits")
		return
	}

	if err := h.codes.Issue(c.Request.Context(), uid, code); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, OKResponse{Success: true})
}

// GetLink godoc
// @ID          getLink
// @Summary     Check an account link
// @Description Reports whether a game account is linked and to which chat account.
// @Tags        Linking
// @Produce     json
//
// @Param       userId  path  string  true  "Game account id"  example(500100)
//
// @Success     200  {object}  handlers.LinkResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /link/{userId} [get]
func (h *Handlers) GetLink(c *gin.Context) {
	uid := strings.TrimSpace(c.Param("userId"))
	if !utils.IsDigits(uid) {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "userId must be numeric")
		return
	}

	chatID, linked, err := h.links.LookupByGameAccount(c.Request.Context(), uid)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, LinkResponse{Success: true, Linked: linked, ChatAccountID: chatID, DiscordID: chatID})
}
