package order

import (
	"context"
	"fmt"
	"time"

	wrap "github.com/Temutjin2k/taxi-fleet-system/pkg/logger/wrapper"
)

// создать уникальный номер заказа
func (s *Service) generateOrderNumber(ctx context.Context) (string, error) {
	datePart := time.Now().Format("20060102")

	count, err := s.repo.CountByDate(ctx, time.Now())
	if err != nil {
		return "", wrap.Error(ctx, err)
	}

	nextSequence := count + 1
	return fmt.Sprintf("ORDER_%s_%03d", datePart, nextSequence), nil
}
