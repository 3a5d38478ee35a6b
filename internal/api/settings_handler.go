package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"video_importer/internal/domain"
)

type SettingsHandler struct {
	store       SettingsStore
	credentials CredentialsProvider
	logger      *slog.Logger
}

func NewSettingsHandler(store SettingsStore, credentials CredentialsProvider, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		store:       store,
		credentials: credentials,
		logger:      logger.With("handler", "settings"),
	}
}

type settingsResponse struct {
	APIKey     string `json:"api_key"`
	ChannelID  string `json:"channel_id"`
	Configured bool   `json:"configured"`
}

type updateSettingsRequest struct {
	APIKey    *string `json:"api_key"`
	ChannelID *string `json:"channel_id"`
}

// Get handles GET /v1/settings. It reports the credentials a run would use,
// with the API key masked.
func (h *SettingsHandler) Get(c *gin.Context) {
	creds, err := h.credentials.Credentials(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load credentials", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}

	c.JSON(http.StatusOK, settingsResponse{
		APIKey:     maskSecret(creds.APIKey),
		ChannelID:  creds.ChannelID,
		Configured: creds.Complete(),
	})
}

// Update handles PUT /v1/settings. Omitted fields are left unchanged.
func (h *SettingsHandler) Update(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.APIKey == nil && req.ChannelID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "api_key or channel_id is required"})
		return
	}

	ctx := c.Request.Context()
	updates := []struct {
		key   string
		value *string
	}{
		{domain.SettingAPIKey, req.APIKey},
		{domain.SettingChannelID, req.ChannelID},
	}
	for _, u := range updates {
		if u.value == nil {
			continue
		}
		if err := h.store.Set(ctx, u.key, strings.TrimSpace(*u.value)); err != nil {
			h.logger.Error("failed to save setting", "key", u.key, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
			return
		}
		h.logger.Info("setting updated", "key", u.key)
	}

	h.Get(c)
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
