package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Temutjin2k/taxi-fleet-system/config"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/metrics"
)

// Client отправляет пуш-уведомления через FCM. Используется для водителей
// без активного WebSocket-соединения.
type Client struct {
	cfg        config.FCMConfig
	httpClient *http.Client
}

func New(cfg config.FCMConfig) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type fcmPayload struct {
	To           string         `json:"to"`
	Notification fcmNotify      `json:"notification"`
	Data         map[string]any `json:"data,omitempty"`
}

type fcmNotify struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (c *Client) Send(ctx context.Context, msg models.PushMessage) error {
	const op = "FCMClient.Send"

	if msg.FCMToken == "" {
		return nil
	}

	data := map[string]any{"event": string(msg.Event)}
	if msg.OrderID != nil {
		data["order_id"] = *msg.OrderID
	}

	body, err := json.Marshal(fcmPayload{
		To: msg.FCMToken,
		Notification: fcmNotify{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: data,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.cfg.ServerKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordPushNotification("fcm", err)
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return wrap.Error(ctx, fmt.Errorf("%s: failed to make request to FCM: %w", op, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.RecordPushNotification("fcm", fmt.Errorf("status %d", resp.StatusCode))
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return wrap.Error(ctx, fmt.Errorf("%s: unexpected response status %d", op, resp.StatusCode))
	}

	metrics.RecordPushNotification("fcm", nil)
	return nil
}
