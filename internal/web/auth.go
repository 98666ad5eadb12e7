package web

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	gmw "github.com/Laisky/gin-middlewares/v7"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
)

const signatureHeader = "X-Hub-Signature-256"

// AuthGate guards webhook endpoints with a static bearer token and an
// optional HMAC body signature. An empty token or secret disables the
// respective check, matching how deployments without credentials run.
func AuthGate(token, webhookSecret string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		logger := gmw.GetLogger(ctx)

		if token != "" && !validBearer(ctx.GetHeader("Authorization"), token) {
			logger.Warn("invalid bearer token",
				zap.String("path", ctx.Request.URL.Path))
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "unauthorized",
			})
			return
		}

		if webhookSecret != "" {
			body, err := ctx.GetRawData()
			if err != nil {
				ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"success": false,
					"error":   "cannot read request body",
				})
				return
			}
			// binding downstream needs the body again
			ctx.Request.Body = io.NopCloser(bytes.NewReader(body))

			if !validSignature(body, ctx.GetHeader(signatureHeader), webhookSecret) {
				logger.Warn("invalid webhook signature",
					zap.String("path", ctx.Request.URL.Path))
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"success": false,
					"error":   "invalid signature",
				})
				return
			}
		}

		ctx.Next()
	}
}

// validBearer compares the Authorization header against the configured token
// in constant time.
func validBearer(header, token string) bool {
	scheme, value, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return false
	}

	return hmac.Equal([]byte(strings.TrimSpace(value)), []byte(token))
}

// validSignature checks an `sha256=<hex>` HMAC of the raw body.
func validSignature(body []byte, header, secret string) bool {
	provided := strings.TrimPrefix(header, "sha256=")
	if provided == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(provided))
}
