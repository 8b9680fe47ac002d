package redis

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Temutjin2k/taxi-fleet-system/internal/domain/types"
)

// SMSCodeStore хранит одноразовые коды входа в Redis с TTL.
// Код сгорает при первом успешном использовании.
type SMSCodeStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSMSCodeStore(client *redis.Client, ttl time.Duration) *SMSCodeStore {
	return &SMSCodeStore{client: client, ttl: ttl}
}

func codeKey(role types.UserRole, phone string) string {
	return fmt.Sprintf("sms_code:%s:%s", role, phone)
}

// Generate выдаёт новый 4-значный код и кладёт его с TTL, затирая прежний.
func (s *SMSCodeStore) Generate(ctx context.Context, role types.UserRole, phone string) (string, error) {
	const op = "SMSCodeStore.Generate"

	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	code := fmt.Sprintf("%04d", n.Int64())

	if err := s.client.Set(ctx, codeKey(role, phone), code, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return code, nil
}

// Verify сравнивает код и удаляет его при совпадении. Повторная проверка
// того же кода вернёт ErrInvalidSMSCode.
func (s *SMSCodeStore) Verify(ctx context.Context, role types.UserRole, phone, code string) error {
	const op = "SMSCodeStore.Verify"
	key := codeKey(role, phone)

	stored, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return types.ErrInvalidSMSCode
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if stored != code {
		return types.ErrInvalidSMSCode
	}

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
