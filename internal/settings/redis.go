package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultRedisKey hash с переопределениями настроек
const DefaultRedisKey = "yamoney:settings"

const (
	keyShop           = "yamoney_shop"
	keyPaymentMethods = "yamoney_payment_method"
)

// RedisProvider накладывает поля redis hash поверх базовых настроек из env.
// Настройки читаются на каждый запрос, поэтому изменения в hash применяются без рестарта.
type RedisProvider struct {
	client redis.Cmdable
	key    string
	base   Settings
	logger *zap.Logger
}

// NewRedisProvider создаёт provider; key по умолчанию DefaultRedisKey
func NewRedisProvider(client redis.Cmdable, key string, base Settings, logger *zap.Logger) *RedisProvider {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisProvider{
		client: client,
		key:    key,
		base:   base,
		logger: logger,
	}
}

// Get возвращает базовые настройки с переопределениями из redis
func (p *RedisProvider) Get(ctx context.Context) (Settings, error) {
	fields, err := p.client.HGetAll(ctx, p.key).Result()
	if err != nil {
		p.logger.Error("failed to read settings hash from redis",
			zap.Error(err),
			zap.String("key", p.key),
		)
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	return Override(p.base, fields)
}

// Override применяет поля hash к s; неизвестные ключи игнорируются.
// Скалярные поля раскладываются по тегам redis, список способов оплаты разбирается отдельно.
func Override(s Settings, fields map[string]string) (Settings, error) {
	scalars := make(map[string]string, len(fields))
	for key, value := range fields {
		scalars[key] = value
	}
	// пустой чекбокс в hash означает "выключено"
	if v, ok := scalars[keyShop]; ok && strings.TrimSpace(v) == "" {
		scalars[keyShop] = "false"
	}

	if err := redis.NewMapStringStringResult(scalars, nil).Scan(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings hash: %w", err)
	}
	if v, ok := fields[keyPaymentMethods]; ok {
		s.PaymentMethods = splitList(v)
	}
	return s, nil
}

// splitList понимает и запятые, и переводы строк
func splitList(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == '\n'
	})
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
