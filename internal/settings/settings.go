package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/caarlos0/env/v10"
)

// ModeTest режим работы через демо-шлюз
const ModeTest = "test"

// ErrNotConfigured возвращается, если для выбранного режима не хватает реквизитов магазина
var ErrNotConfigured = errors.New("yamoney gateway is not configured")

// Settings настройки интеграции с Яндекс.Деньгами.
// Ключи redis совпадают с ключами настроек модуля (yamoney_*).
type Settings struct {
	// IP список разрешённых адресов шлюза, по одному на строку; 0.0.0.0 разрешает всех
	IP string `env:"YAMONEY_IP" redis:"yamoney_ip"`
	// Mode "test" или "live"
	Mode string `env:"YAMONEY_MODE" envDefault:"test" redis:"yamoney_mode"`
	// PaymentMethods включённые коды способов оплаты; пусто = все.
	// В redis ключ yamoney_payment_method, разбирается в Override.
	PaymentMethods       []string `env:"YAMONEY_PAYMENT_METHOD" envSeparator:"," redis:"-"`
	DefaultPaymentMethod string   `env:"YAMONEY_DEFAULT_PAYMENT_METHOD" envDefault:"AC" redis:"yamoney_default_payment_method"`
	// Shop true для протокола магазина (eshop.xml), false для quick-pay
	Shop bool `env:"YAMONEY_SHOP" redis:"yamoney_shop"`

	ShopID      string `env:"YAMONEY_SHOP_ID" redis:"yamoney_shop_id"`
	SCID        string `env:"YAMONEY_SCID" redis:"yamoney_scid"`
	Secret      string `env:"YAMONEY_SECRET" redis:"yamoney_secret"`
	Receiver    string `env:"YAMONEY_RECEIVER" redis:"yamoney_receiver"`
	FormComment string `env:"YAMONEY_FORMCOMMENT" redis:"yamoney_formcomment"`
	SuccessText string `env:"YAMONEY_SUCCESS_TEXT" envDefault:"Payment completed successfully." redis:"yamoney_success_text"`
	FailText    string `env:"YAMONEY_FAIL_TEXT" envDefault:"Payment failed." redis:"yamoney_fail_text"`

	// CMSName передаётся шлюзу в cms_name
	CMSName string `env:"YAMONEY_CMS_NAME" envDefault:"drupal" redis:"yamoney_cms_name"`
}

// IsTest сообщает, используется ли демо-шлюз
func (s Settings) IsTest() bool {
	return s.Mode == ModeTest
}

// Validate проверяет реквизиты, нужные для построения платёжной формы
func (s Settings) Validate() error {
	if s.Shop {
		if s.ShopID == "" || s.SCID == "" {
			return fmt.Errorf("%w: yamoney_shop_id and yamoney_scid are required in shop mode", ErrNotConfigured)
		}
		return nil
	}
	if s.Receiver == "" {
		return fmt.Errorf("%w: yamoney_receiver is required in quick-pay mode", ErrNotConfigured)
	}
	return nil
}

// Provider отдаёт актуальный снимок настроек
type Provider interface {
	Get(ctx context.Context) (Settings, error)
}

// Static Provider с неизменными настройками
type Static Settings

// Get возвращает настройки
func (s Static) Get(context.Context) (Settings, error) {
	return Settings(s), nil
}

// LoadEnv читает Settings из переменных окружения
func LoadEnv() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse yamoney settings: %w", err)
	}
	return s, nil
}

// LoadFrom читает Settings из переданного набора переменных
func LoadFrom(vars map[string]string) (Settings, error) {
	var s Settings
	if err := env.ParseWithOptions(&s, env.Options{Environment: vars}); err != nil {
		return Settings{}, fmt.Errorf("parse yamoney settings: %w", err)
	}
	return s, nil
}
