package notify

import (
	"context"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
)

type Registry interface {
	SendToDriver(ctx context.Context, driverID int64, msg models.WebSocketMessage) (bool, error)
	SendToClient(ctx context.Context, phone string, msg models.WebSocketMessage) (bool, error)
	BroadcastToDispatchers(ctx context.Context, taxiparkID int64, msg models.WebSocketMessage) error
	BroadcastToParkDrivers(ctx context.Context, taxiparkID int64, msg models.WebSocketMessage) error
}

type Broker interface {
	PublishDriverPush(ctx context.Context, msg models.PushMessage) error
	PublishWSEvent(ctx context.Context, ev models.WSEvent) error
}

type DriverRepo interface {
	GetByID(ctx context.Context, id int64) (*models.Driver, error)
}
