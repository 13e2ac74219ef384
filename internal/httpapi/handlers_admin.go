package httpapi

import (
	"context"
	"net/http"

	"github.com/MarkoPoloResearchLab/lootcase/pkg/loot"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (handler *httpHandler) handleAdminListItems(ctx *gin.Context) {
	items, err := handler.service.ListItems(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	payloads := make([]itemPayload, 0, len(items))
	for _, item := range items {
		payloads = append(payloads, newItemPayload(item))
	}
	ctx.JSON(http.StatusOK, itemListResponse{Items: payloads})
}

func (handler *httpHandler) handleAdminUpsertItem(ctx *gin.Context) {
	var request itemRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(codeInvalidRequest, "type and title are required"))
		return
	}
	item, err := request.toItem()
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	saved, err := handler.service.UpsertItem(ctx.Request.Context(), item)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	handler.logOperatorAction(ctx, "upsert_item", zap.Int64("item_id", saved.ID))
	ctx.JSON(http.StatusOK, newItemPayload(saved))
}

func (handler *httpHandler) handleAdminDeleteItem(ctx *gin.Context) {
	itemID, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := handler.service.DeleteItem(ctx.Request.Context(), itemID); err != nil {
		handler.respondError(ctx, err)
		return
	}
	handler.logOperatorAction(ctx, "delete_item", zap.Int64("item_id", itemID))
	ctx.Status(http.StatusNoContent)
}

func (handler *httpHandler) handleAdminListCases(ctx *gin.Context) {
	cases, err := handler.service.ListCases(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, newCaseListResponse(cases))
}

func (handler *httpHandler) handleAdminCreateCase(ctx *gin.Context) {
	handler.saveCase(ctx, 0)
}

func (handler *httpHandler) handleAdminUpdateCase(ctx *gin.Context) {
	caseID, ok := pathID(ctx)
	if !ok {
		return
	}
	handler.saveCase(ctx, caseID)
}

func (handler *httpHandler) saveCase(ctx *gin.Context, caseID int64) {
	var request caseRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(codeInvalidRequest, "title and type are required"))
		return
	}
	lootCase, links, err := request.toCase(caseID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	requestCtx := ctx.Request.Context()
	saved, err := handler.service.UpsertCase(requestCtx, lootCase, links)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	contents, err := handler.service.ListCaseContents(requestCtx, saved.ID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	handler.logOperatorAction(ctx, "upsert_case", zap.Int64("case_id", saved.ID))
	ctx.JSON(http.StatusOK, caseDetailResponse{
		Case:  newCasePayload(saved),
		Items: newCaseContentPayloads(contents),
	})
}

func (handler *httpHandler) handleAdminDeleteCase(ctx *gin.Context) {
	caseID, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := handler.service.DeleteCase(ctx.Request.Context(), caseID); err != nil {
		handler.respondError(ctx, err)
		return
	}
	handler.logOperatorAction(ctx, "delete_case", zap.Int64("case_id", caseID))
	ctx.Status(http.StatusNoContent)
}

func (handler *httpHandler) handleAdminListRequests(ctx *gin.Context) {
	var status loot.RequestStatus
	if raw := ctx.Query("status"); raw != "" {
		parsed, err := loot.ParseRequestStatus(raw)
		if err != nil {
			handler.respondError(ctx, err)
			return
		}
		status = parsed
	}
	requests, err := handler.service.ListRequests(ctx.Request.Context(), status)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	payloads := make([]requestPayload, 0, len(requests))
	for _, request := range requests {
		payloads = append(payloads, newRequestPayload(request))
	}
	ctx.JSON(http.StatusOK, requestListResponse{Requests: payloads})
}

func (handler *httpHandler) handleAdminApprove(ctx *gin.Context) {
	handler.resolveRequest(ctx, "approve_request", func(requestCtx context.Context, requestID string) (loot.RedemptionRequest, error) {
		return handler.service.ApproveRequest(requestCtx, requestID)
	})
}

func (handler *httpHandler) handleAdminDeny(ctx *gin.Context) {
	var request denyRequest
	if !bindOptionalJSON(ctx, &request) {
		return
	}
	handler.resolveRequest(ctx, "deny_request", func(requestCtx context.Context, requestID string) (loot.RedemptionRequest, error) {
		return handler.service.DenyRequest(requestCtx, requestID, request.Comment)
	})
}

func (handler *httpHandler) handleAdminReturn(ctx *gin.Context) {
	handler.resolveRequest(ctx, "return_request", func(requestCtx context.Context, requestID string) (loot.RedemptionRequest, error) {
		return handler.service.ReturnRequest(requestCtx, requestID)
	})
}

func (handler *httpHandler) resolveRequest(ctx *gin.Context, action string, resolve func(context.Context, string) (loot.RedemptionRequest, error)) {
	requestID := ctx.Param("id")
	if requestID == "" {
		ctx.JSON(http.StatusBadRequest, errorResponse(codeInvalidRequest, messageInvalidIdentity))
		return
	}
	resolved, err := resolve(ctx.Request.Context(), requestID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	handler.logOperatorAction(ctx, action, zap.String("request_id", requestID))
	ctx.JSON(http.StatusOK, newRequestPayload(resolved))
}

func (handler *httpHandler) logOperatorAction(ctx *gin.Context, action string, fields ...zap.Field) {
	fields = append(fields, zap.String("action", action), zap.String("operator", ctx.GetString(contextKeyOperator)))
	handler.logger.Info("operator action", fields...)
}
