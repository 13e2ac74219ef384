package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MarkoPoloResearchLab/lootcase/pkg/loot"
	"github.com/gin-gonic/gin"
)

const (
	contextKeySession  = "loot_session"
	contextKeyOperator = "loot_operator"
	bearerPrefix       = "bearer "
)

func bearerToken(ctx *gin.Context) string {
	header := strings.TrimSpace(ctx.GetHeader("Authorization"))
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

func (handler *httpHandler) requireSession() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx)
		if token == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(codeNoSession, messageMissingSession))
			return
		}
		session, err := handler.service.LookupSession(ctx.Request.Context(), token)
		if err != nil {
			if errors.Is(err, loot.ErrSessionNotFound) || errors.Is(err, loot.ErrSessionExpired) {
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(codeInvalidSession, messageInvalidSession))
				return
			}
			handler.respondError(ctx, err)
			return
		}
		ctx.Set(contextKeySession, session)
		ctx.Next()
	}
}

func getSession(ctx *gin.Context) (loot.Session, bool) {
	value, ok := ctx.Get(contextKeySession)
	if !ok {
		return loot.Session{}, false
	}
	session, ok := value.(loot.Session)
	return session, ok
}

func requireOperator(verifier *operatorVerifier) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx)
		if token == "" {
			ctx.AbortWithStatusJSON(http.StatusForbidden, errorResponse(codeForbidden, "operator token required"))
			return
		}
		claims, err := verifier.Verify(token)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusForbidden, errorResponse(codeForbidden, "operator token rejected"))
			return
		}
		ctx.Set(contextKeyOperator, claims.Subject)
		ctx.Next()
	}
}
