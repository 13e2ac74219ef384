package httpapi

import (
	"errors"
	"net/http"

	"github.com/MarkoPoloResearchLab/lootcase/pkg/loot"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	codeNoSession          = "NO_SESSION"
	codeInvalidSession     = "INVALID_SESSION"
	codeAuthFailed         = "AUTH_FAILED"
	codeForbidden          = "FORBIDDEN"
	codeInvalidRequest     = "INVALID_REQUEST"
	codeCaseNotFound       = "CASE_NOT_FOUND"
	codeItemNotFound       = "ITEM_NOT_FOUND"
	codeInventoryNotFound  = "INVENTORY_NOT_FOUND"
	codeRequestNotFound    = "REQUEST_NOT_FOUND"
	codeAlreadyOpened      = "ALREADY_OPENED"
	codeNotEnoughDeposit   = "NOT_ENOUGH_DEPOSIT"
	codeCaseEmpty          = "CASE_EMPTY"
	codeCaseMisconfigured  = "CASE_MISCONFIGURED"
	codeNotAvailable       = "NOT_AVAILABLE"
	codeRequestClosed      = "REQUEST_CLOSED"
	codeCannotSellMoney    = "CANNOT_SELL_MONEY"
	codeTradeLinkMissing   = "TRADE_LINK_MISSING"
	codeOpenFailed         = "OPEN_FAILED"
	codeInternal           = "INTERNAL"
	messageInternal        = "internal error"
	messageMissingSession  = "missing bearer token"
	messageInvalidSession  = "session is invalid or expired"
	messageInvalidPayload  = "expected JSON body"
	messageInvalidIdentity = "invalid identifier"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// errorMappings is checked in order; ErrOpenFailed precedes the storage errors it wraps.
var errorMappings = []errorMapping{
	{target: loot.ErrOpenFailed, status: http.StatusInternalServerError, code: codeOpenFailed, message: "could not open case"},
	{target: loot.ErrInvalidCredentials, status: http.StatusUnauthorized, code: codeAuthFailed, message: "invalid login or password"},
	{target: loot.ErrUpstream, status: http.StatusUnauthorized, code: codeAuthFailed, message: "billing rejected the credentials"},
	{target: loot.ErrSessionNotFound, status: http.StatusUnauthorized, code: codeInvalidSession, message: messageInvalidSession},
	{target: loot.ErrSessionExpired, status: http.StatusUnauthorized, code: codeInvalidSession, message: messageInvalidSession},
	{target: loot.ErrCaseNotFound, status: http.StatusNotFound, code: codeCaseNotFound, message: "case not found"},
	{target: loot.ErrItemNotFound, status: http.StatusNotFound, code: codeItemNotFound, message: "item not found"},
	{target: loot.ErrInventoryNotFound, status: http.StatusNotFound, code: codeInventoryNotFound, message: "inventory entry not found"},
	{target: loot.ErrRequestNotFound, status: http.StatusNotFound, code: codeRequestNotFound, message: "request not found"},
	{target: loot.ErrAlreadyOpened, status: http.StatusConflict, code: codeAlreadyOpened, message: "case already opened this period"},
	{target: loot.ErrNotEnoughDeposit, status: http.StatusForbidden, code: codeNotEnoughDeposit, message: "deposit threshold not reached"},
	{target: loot.ErrCaseEmpty, status: http.StatusConflict, code: codeCaseEmpty, message: "case has no prizes available"},
	{target: loot.ErrCaseMisconfigured, status: http.StatusConflict, code: codeCaseMisconfigured, message: "case weights are misconfigured"},
	{target: loot.ErrNotAvailable, status: http.StatusConflict, code: codeNotAvailable, message: "inventory entry is not available"},
	{target: loot.ErrRequestClosed, status: http.StatusConflict, code: codeRequestClosed, message: "request is already closed"},
	{target: loot.ErrCannotSellMoney, status: http.StatusBadRequest, code: codeCannotSellMoney, message: "money prizes cannot be sold"},
	{target: loot.ErrTradeLinkMissing, status: http.StatusBadRequest, code: codeTradeLinkMissing, message: "trade link is required"},
	{target: loot.ErrInvalidUserID, status: http.StatusBadRequest, code: codeInvalidRequest, message: messageInvalidIdentity},
	{target: loot.ErrInvalidItemType, status: http.StatusBadRequest, code: codeInvalidRequest, message: "invalid item type"},
	{target: loot.ErrInvalidCaseType, status: http.StatusBadRequest, code: codeInvalidRequest, message: "invalid case type"},
	{target: loot.ErrInvalidRequestStatus, status: http.StatusBadRequest, code: codeInvalidRequest, message: "invalid request status"},
	{target: loot.ErrInvalidItem, status: http.StatusBadRequest, code: codeInvalidRequest, message: "invalid item"},
	{target: loot.ErrInvalidCase, status: http.StatusBadRequest, code: codeInvalidRequest, message: "invalid case"},
	{target: loot.ErrInvalidCaseItem, status: http.StatusBadRequest, code: codeInvalidRequest, message: "invalid case item"},
	{target: loot.ErrInvalidTradeLink, status: http.StatusBadRequest, code: codeInvalidRequest, message: "invalid trade link"},
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// classifyError maps a service error to an HTTP status and stable code.
func classifyError(err error) (int, string) {
	mapping := lookupError(err)
	return mapping.status, mapping.code
}

func lookupError(err error) errorMapping {
	for _, mapping := range errorMappings {
		if errors.Is(err, mapping.target) {
			return mapping
		}
	}
	return errorMapping{status: http.StatusInternalServerError, code: codeInternal, message: messageInternal}
}

func (handler *httpHandler) respondError(ctx *gin.Context, err error) {
	mapping := lookupError(err)
	if mapping.status >= http.StatusInternalServerError {
		handler.logger.Error("request failed",
			zap.String("path", ctx.FullPath()),
			zap.String("code", mapping.code),
			zap.Error(err),
		)
		ctx.AbortWithStatusJSON(mapping.status, errorResponse(mapping.code, messageInternal))
		return
	}
	ctx.AbortWithStatusJSON(mapping.status, errorResponse(mapping.code, mapping.message))
}
