package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/models"
	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/logger"
	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/metrics"
	"github.com/Temutjin2k/taxi-fleet-system/pkg/trm"
)

// Service ведёт балансовую книгу водителей: комиссии с заказов,
// пополнения и выписка по операциям.
type Service struct {
	transactions TransactionRepo
	drivers      DriverRepo
	parks        TaxiparkRepo
	txManager    trm.TxManager

	// Процент по умолчанию, когда у парка свой не задан.
	defaultPercent float64

	log logger.Logger
}

func NewService(
	transactions TransactionRepo,
	drivers DriverRepo,
	parks TaxiparkRepo,
	txManager trm.TxManager,
	defaultPercent float64,
	log logger.Logger,
) *Service {
	return &Service{
		transactions:   transactions,
		drivers:        drivers,
		parks:          parks,
		txManager:      txManager,
		defaultPercent: defaultPercent,
		log:            log,
	}
}

// percentFor возвращает процент комиссии парка заказа.
func (s *Service) percentFor(ctx context.Context, taxiparkID int64) (float64, error) {
	park, err := s.parks.GetByID(ctx, taxiparkID)
	if err != nil {
		return 0, err
	}
	if park.CommissionPercent > 0 {
		return park.CommissionPercent, nil
	}
	return s.defaultPercent, nil
}

// CommissionAmount считает комиссию с цены заказа, округляя до тыйынов.
func CommissionAmount(price, percent float64) float64 {
	return math.Round(price*percent) / 100
}

// CommissionReference строит идемпотентный ключ списания для заказа.
// Уникальный индекс по reference гарантирует одно списание на заказ.
func CommissionReference(orderID int64) string {
	return fmt.Sprintf("COMMISSION-%d", orderID)
}

// ChargeCommission списывает комиссию с баланса водителя за принятый заказ.
// Баланс блокируется (SELECT ... FOR UPDATE) на время проверки и списания,
// поэтому параллельные списания не уводят его в минус. Повторный вызов с тем
// же заказом возвращает types.ErrCommissionAlreadyCharged.
//
// Вызывается внутри transactions менеджера вместе с захватом заказа: если
// списание не прошло, заказ остаётся свободным.
func (s *Service) ChargeCommission(ctx context.Context, driverID int64, order *models.Order) (float64, error) {
	ctx = wrap.WithAction(ctx, "charge_commission")

	percent, err := s.percentFor(ctx, order.TaxiparkID)
	if err != nil {
		return 0, wrap.Error(ctx, err)
	}
	commission := CommissionAmount(order.Price, percent)

	var newBalance float64
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		balance, err := s.drivers.BalanceForUpdate(ctx, driverID)
		if err != nil {
			return err
		}

		if balance < commission {
			return &types.InsufficientBalanceError{
				Required:          commission,
				Available:         balance,
				CommissionPercent: percent,
			}
		}

		t := &models.Transaction{
			DriverID: driverID,
			Type:     types.TransactionCommission,
			Amount:   -commission,
			Description: fmt.Sprintf(
				"Комиссия %.1f%% за заказ %s", percent, order.OrderNumber,
			),
			Reference: CommissionReference(order.ID),
			OrderID:   &order.ID,
		}
		if err := s.transactions.Create(ctx, t); err != nil {
			return err
		}

		newBalance, err = s.drivers.AddToBalance(ctx, driverID, -commission)
		return err
	})
	if err != nil {
		if errors.Is(err, types.ErrCommissionAlreadyCharged) {
			return 0, wrap.Error(ctx, err)
		}
		if _, ok := types.IsInsufficientBalance(err); ok {
			return 0, err
		}
		return 0, wrap.Error(ctx, err)
	}

	metrics.CommissionChargedTotal.WithLabelValues("ledger").Add(commission)
	s.log.Info(ctx, "commission charged",
		"driver_id", driverID,
		"order_id", order.ID,
		"amount", commission,
		"balance", newBalance,
	)

	return commission, nil
}

// TopUp зачисляет средства на баланс водителя. Ссылка включает момент
// операции, повторные пополнения не схлопываются.
func (s *Service) TopUp(ctx context.Context, driverID int64, amount float64, description string) (float64, error) {
	ctx = wrap.WithAction(ctx, "topup_balance")

	if amount <= 0 {
		return 0, wrap.Error(ctx, types.ErrInvalidAmount)
	}

	if _, err := s.drivers.GetByID(ctx, driverID); err != nil {
		return 0, wrap.Error(ctx, err)
	}

	if description == "" {
		description = "Пополнение баланса"
	}

	var newBalance float64
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		t := &models.Transaction{
			DriverID:    driverID,
			Type:        types.TransactionTopup,
			Amount:      amount,
			Description: description,
			Reference:   fmt.Sprintf("TOPUP-%d-%d", driverID, time.Now().UnixNano()),
		}
		if err := s.transactions.Create(ctx, t); err != nil {
			return err
		}

		var err error
		newBalance, err = s.drivers.AddToBalance(ctx, driverID, amount)
		return err
	})
	if err != nil {
		return 0, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "balance topped up",
		"driver_id", driverID,
		"amount", amount,
		"balance", newBalance,
	)

	return newBalance, nil
}

// Balance возвращает текущий баланс водителя.
func (s *Service) Balance(ctx context.Context, driverID int64) (float64, error) {
	ctx = wrap.WithAction(ctx, "get_balance")

	driver, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		return 0, wrap.Error(ctx, err)
	}

	return driver.Balance, nil
}

// History возвращает выписку по операциям водителя, новые первыми.
func (s *Service) History(ctx context.Context, driverID int64, filters models.Filters) ([]*models.Transaction, models.Metadata, error) {
	ctx = wrap.WithAction(ctx, "list_transactions")

	list, meta, err := s.transactions.ListByDriver(ctx, driverID, filters)
	if err != nil {
		return nil, models.Metadata{}, wrap.Error(ctx, err)
	}

	return list, meta, nil
}
