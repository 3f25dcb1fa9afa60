package service

import (
	"context"

	"github.com/shestoi/yamoney-gateway/internal/settings"
)

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name=SettingsProvider --dir=. --output=./mocks --outpkg=mocks

// SettingsProvider отдаёт настройки шлюза на момент запроса.
// Реализации: settings.Static (env) и settings.RedisProvider.
type SettingsProvider interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// URLResolver строит абсолютные адреса страниц возврата покупателя
type URLResolver interface {
	CompleteURL() string
	FailURL() string
}

// Topics топики событий оплаты
type Topics struct {
	Success string
	Fail    string
}
