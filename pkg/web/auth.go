package web

import (
	"net/http"
	"strconv"

	"github.com/cnonsohenry/telegram-video-app-sub000/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// VideoAuthRequired checks the file_path, exp and sig query parameters before
// anything touches the cache or origin.
func (h *Handlers) VideoAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		filePath := c.Query("file_path")
		expiry := c.Query("exp")
		sig := c.Query("sig")
		if filePath == "" || expiry == "" || sig == "" {
			abortWithError(c, http.StatusBadRequest, "missing file_path, exp or sig query parameter")
			return
		}
		if !isInteger(expiry) {
			abortWithError(c, http.StatusBadRequest, "exp must be an integer")
			return
		}

		if !h.Verifier.VerifyVideo(filePath, expiry, sig) {
			metrics.SignatureFailures.WithLabelValues("video").Inc()
			log.Debug().Str("file_path", filePath).Str("exp", expiry).Msg("Failed to validate video signature")
			abortWithError(c, http.StatusForbidden, "invalid or expired signature")
			return
		}

		c.Set("file_path", filePath)
		c.Next()
	}
}

// ThumbnailAuthRequired checks the chat_id, message_id and sig query
// parameters. Both ids must be integers.
func (h *Handlers) ThumbnailAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		chatID := c.Query("chat_id")
		messageID := c.Query("message_id")
		sig := c.Query("sig")
		if chatID == "" || messageID == "" || sig == "" {
			abortWithError(c, http.StatusBadRequest, "missing chat_id, message_id or sig query parameter")
			return
		}
		if !isInteger(chatID) || !isInteger(messageID) {
			abortWithError(c, http.StatusBadRequest, "chat_id and message_id must be integers")
			return
		}

		if !h.Verifier.VerifyThumbnail(chatID, messageID, sig) {
			metrics.SignatureFailures.WithLabelValues("thumbnail").Inc()
			log.Debug().Str("chat_id", chatID).Str("message_id", messageID).Msg("Failed to validate thumbnail signature")
			abortWithError(c, http.StatusForbidden, "invalid signature")
			return
		}

		c.Set("chat_id", chatID)
		c.Set("message_id", messageID)
		c.Next()
	}
}

// Chat ids of channels and groups are negative.
func isInteger(value string) bool {
	_, err := strconv.ParseInt(value, 10, 64)
	return err == nil
}
