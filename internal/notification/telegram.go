// File: internal/notification/telegram.go
package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"apt_briefing_backend/internal/config"

	"go.uber.org/zap"
)

const defaultTelegramAPIBaseURL = "https://api.telegram.org"

// TelegramChannel delivers alerts through the Telegram bot API.
type TelegramChannel struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewTelegramChannel creates a bot-API-backed channel.
func NewTelegramChannel(cfg *config.Config, logger *zap.Logger) *TelegramChannel {
	return &TelegramChannel{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (c *TelegramChannel) Name() string {
	return ChannelTelegram
}

func (c *TelegramChannel) Send(dest, subject, body string) (bool, string) {
	if !c.cfg.TelegramEnabled {
		return false, "telegram channel is disabled"
	}
	if c.cfg.TelegramBotToken == "" {
		return false, "telegram bot token is not configured"
	}
	if dest == "" {
		return false, "no destination chat id"
	}

	baseURL := c.cfg.TelegramAPIBaseURL
	if baseURL == "" {
		baseURL = defaultTelegramAPIBaseURL
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", baseURL, c.cfg.TelegramBotToken)

	text := body
	if subject != "" {
		text = subject + "\n\n" + body
	}
	payload, err := json.Marshal(map[string]interface{}{
		"chat_id": dest,
		"text":    text,
	})
	if err != nil {
		return false, err.Error()
	}

	resp, err := c.httpClient.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		c.logger.Warn("Telegram delivery failed", zap.String("chat_id", dest), zap.Error(err))
		return false, err.Error()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		reason := fmt.Sprintf("telegram api returned status %d", resp.StatusCode)
		c.logger.Warn("Telegram delivery rejected", zap.String("chat_id", dest), zap.Int("status", resp.StatusCode))
		return false, reason
	}
	return true, ""
}
