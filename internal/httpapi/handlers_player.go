package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/MarkoPoloResearchLab/lootcase/pkg/loot"
	"github.com/gin-gonic/gin"
)

func (handler *httpHandler) handleLogin(ctx *gin.Context) {
	var request loginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(codeInvalidRequest, "login and password are required"))
		return
	}
	session, profile, err := handler.service.Login(ctx.Request.Context(), request.Login, request.Password)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, sessionResponse{
		SessionToken: session.Token,
		ExpiresAt:    session.ExpiresAt,
		User:         newUserPayload(profile),
	})
}

func (handler *httpHandler) handleLogout(ctx *gin.Context) {
	session, _ := getSession(ctx)
	if err := handler.service.Logout(ctx.Request.Context(), session); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (handler *httpHandler) handleMe(ctx *gin.Context) {
	session, _ := getSession(ctx)
	requestCtx := ctx.Request.Context()
	profile := handler.service.CurrentProfile(requestCtx, session)
	statuses, progress, err := handler.service.CaseStatuses(requestCtx, session.UserID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	settings, err := handler.service.UserSettings(requestCtx, session.UserID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	now := handler.service.Now()
	cases := make([]caseStatusPayload, 0, len(statuses))
	for _, status := range statuses {
		cases = append(cases, caseStatusPayload{
			casePayload: newCasePayload(status.Case),
			Progress:    formatMoney(status.Progress),
			PeriodKey:   status.PeriodKey,
			Unlocked:    status.Unlocked,
			Claimed:     status.Claimed,
			Available:   status.Available(),
			ResetsAt:    status.ResetsAt,
			ResetsIn:    resetsInSeconds(status.ResetsAt, now),
		})
	}
	ctx.JSON(http.StatusOK, meResponse{
		User:      newUserPayload(profile),
		Level:     settings.Level,
		XP:        settings.XP,
		TradeLink: settings.TradeLink,
		Progress:  progressPayload{Daily: formatMoney(progress.Daily), Monthly: formatMoney(progress.Monthly)},
		Cases:     cases,
	})
}

func (handler *httpHandler) handleListCases(ctx *gin.Context) {
	cases, err := handler.service.ListActiveCases(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, newCaseListResponse(cases))
}

func (handler *httpHandler) handleCaseDetails(ctx *gin.Context) {
	caseID, ok := pathID(ctx)
	if !ok {
		return
	}
	lootCase, contents, err := handler.service.CaseDetails(ctx.Request.Context(), caseID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, caseDetailResponse{
		Case:  newCasePayload(lootCase),
		Items: newCaseContentPayloads(contents),
	})
}

func (handler *httpHandler) handleOpenCase(ctx *gin.Context) {
	session, _ := getSession(ctx)
	var request openCaseRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(codeInvalidRequest, "case_id is required"))
		return
	}
	prize, err := handler.service.OpenCase(ctx.Request.Context(), session.UserID, session.Nickname, request.CaseID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, openCaseResponse{Prize: newPrizePayload(prize)})
}

func (handler *httpHandler) handleInventory(ctx *gin.Context) {
	session, _ := getSession(ctx)
	entries, err := handler.service.ListInventory(ctx.Request.Context(), session.UserID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	items := make([]inventoryPayload, 0, len(entries))
	for _, entry := range entries {
		items = append(items, newInventoryPayload(entry))
	}
	ctx.JSON(http.StatusOK, inventoryResponse{Items: items})
}

func (handler *httpHandler) handleSell(ctx *gin.Context) {
	session, _ := getSession(ctx)
	var request inventoryActionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(codeInvalidRequest, "inventory_id is required"))
		return
	}
	amount, err := handler.service.Sell(ctx.Request.Context(), session.UserID, request.InventoryID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, sellResponse{
		InventoryID: request.InventoryID,
		Status:      loot.InventoryStatusSold.String(),
		Amount:      formatMoney(amount),
	})
}

func (handler *httpHandler) handleClaim(ctx *gin.Context) {
	session, _ := getSession(ctx)
	var request inventoryActionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(codeInvalidRequest, "inventory_id is required"))
		return
	}
	result, err := handler.service.Claim(ctx.Request.Context(), session.UserID, session.Nickname, request.InventoryID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	response := claimResponse{Entry: newInventoryPayload(result.Entry)}
	if result.Request != nil {
		payload := newRequestPayload(*result.Request)
		response.Request = &payload
	}
	ctx.JSON(http.StatusOK, response)
}

func (handler *httpHandler) handleTradeLink(ctx *gin.Context) {
	session, _ := getSession(ctx)
	var request tradeLinkRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(codeInvalidRequest, "trade_link is required"))
		return
	}
	settings, err := handler.service.SetTradeLink(ctx.Request.Context(), session.UserID, request.TradeLink)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, tradeLinkResponse{TradeLink: settings.TradeLink})
}

func pathID(ctx *gin.Context) (int64, bool) {
	value, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || value <= 0 {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, errorResponse(codeInvalidRequest, messageInvalidIdentity))
		return 0, false
	}
	return value, true
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(ctx *gin.Context, target any) bool {
	if err := ctx.ShouldBindJSON(target); err != nil && !errors.Is(err, io.EOF) {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, errorResponse(codeInvalidRequest, messageInvalidPayload))
		return false
	}
	return true
}

func newCaseListResponse(cases []loot.Case) caseListResponse {
	payloads := make([]casePayload, 0, len(cases))
	for _, lootCase := range cases {
		payloads = append(payloads, newCasePayload(lootCase))
	}
	return caseListResponse{Cases: payloads}
}

func resetsInSeconds(resetsAt time.Time, now time.Time) int64 {
	remaining := resetsAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return int64(remaining / time.Second)
}
