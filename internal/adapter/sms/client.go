package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Temutjin2k/taxi-fleet-system/config"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
)

// Client отправляет СМС через внешний шлюз. Для тестового номера отправка
// пропускается, вход принимает фиксированный код "1111".
type Client struct {
	cfg        config.SMSConfig
	httpClient *http.Client
}

func New(cfg config.SMSConfig) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

const TestCode = "1111"

// IsTestPhone reports whether phone is the configured bypass number.
func (c *Client) IsTestPhone(phone string) bool {
	return c.cfg.TestPhone != "" && phone == c.cfg.TestPhone
}

type sendPayload struct {
	Sender  string `json:"sender"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// SendCode доставляет код входа на номер.
func (c *Client) SendCode(ctx context.Context, phone, code string) error {
	const op = "SMSClient.SendCode"

	if c.IsTestPhone(phone) {
		return nil
	}

	body, err := json.Marshal(sendPayload{
		Sender:  c.cfg.Sender,
		Phone:   phone,
		Message: fmt.Sprintf("Код входа: %s", code),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return wrap.Error(ctx, fmt.Errorf("%s: failed to make request to SMS gateway: %w", op, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return wrap.Error(ctx, fmt.Errorf("%s: unexpected response status %d", op, resp.StatusCode))
	}

	return nil
}
