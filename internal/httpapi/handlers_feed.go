package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/MarkoPoloResearchLab/lootcase/pkg/loot"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	cacheKeyStats       = "stats"
	cacheKeyDropsPrefix = "drops:"
	contentTypeJSON     = "application/json; charset=utf-8"
)

func (handler *httpHandler) handlePublicStats(ctx *gin.Context) {
	if handler.serveCached(ctx, cacheKeyStats) {
		return
	}
	stats, err := handler.service.PublicStats(ctx.Request.Context())
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	handler.respondCacheable(ctx, cacheKeyStats, statsResponse{
		TotalSpins:      stats.TotalSpins,
		TotalPlayers:    stats.TotalPlayers,
		SpinsToday:      stats.SpinsToday,
		TotalPrizeValue: formatMoney(stats.TotalPrizeValue),
	})
}

func (handler *httpHandler) handleRecentDrops(ctx *gin.Context) {
	limit := handler.cfg.RecentDropsLimit
	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			ctx.JSON(http.StatusBadRequest, errorResponse(codeInvalidRequest, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	limit = loot.RecentDropsLimit(limit)
	cacheKey := cacheKeyDropsPrefix + strconv.Itoa(limit)
	if handler.serveCached(ctx, cacheKey) {
		return
	}
	spins, err := handler.service.RecentDrops(ctx.Request.Context(), limit)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	drops := make([]dropPayload, 0, len(spins))
	for _, spin := range spins {
		drops = append(drops, dropPayload{
			ID:        spin.ID,
			Nickname:  spin.Nickname,
			CaseID:    spin.CaseID,
			Title:     spin.PrizeTitle,
			Amount:    formatMoney(spin.PrizeAmount),
			Rarity:    spin.Rarity,
			ImageURL:  spin.ImageURL,
			CreatedAt: spin.CreatedAt,
		})
	}
	handler.respondCacheable(ctx, cacheKey, dropsResponse{Drops: drops})
}

func (handler *httpHandler) serveCached(ctx *gin.Context, key string) bool {
	if handler.cache == nil {
		return false
	}
	payload, ok := handler.cache.Get(ctx.Request.Context(), key)
	if !ok {
		return false
	}
	ctx.Data(http.StatusOK, contentTypeJSON, payload)
	return true
}

func (handler *httpHandler) respondCacheable(ctx *gin.Context, key string, response any) {
	payload, err := json.Marshal(response)
	if err != nil {
		handler.logger.Error("feed encode failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse(codeInternal, messageInternal))
		return
	}
	if handler.cache != nil {
		handler.cache.Set(ctx.Request.Context(), key, payload)
	}
	ctx.Data(http.StatusOK, contentTypeJSON, payload)
}
