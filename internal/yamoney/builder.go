package yamoney

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/shestoi/yamoney-gateway/internal/repository"
	"github.com/shestoi/yamoney-gateway/internal/settings"
)

// Mode протокол платёжной формы
type Mode string

const (
	// ModeShop протокол магазина (shopId/scid)
	ModeShop Mode = "shop"
	// ModeQuick quick-pay перевод на кошелёк receiver
	ModeQuick Mode = "quick"
)

// ModeFor выбирает протокол по настройкам
func ModeFor(s settings.Settings) Mode {
	if s.Shop {
		return ModeShop
	}
	return ModeQuick
}

// Stage точка, в которой вызываются фильтры параметров
type Stage string

const (
	StageShopParams      Stage = "shop_params"
	StageQuickParams     Stage = "quick_params"
	StageOrderSubmission Stage = "order_submission_params"
)

// ParamFilter может добавить, изменить или удалить любой параметр.
// Хранить ссылку на Params после возврата нельзя.
type ParamFilter func(p *Params)

// ReturnURLs абсолютные адреса возврата покупателя
type ReturnURLs struct {
	Success string
	Fail    string
}

const (
	orderTargetsPrefix = "Payments for order No"
	donateTargets      = "Donate payment"
	quickpayFormShop   = "shop"
)

// Builder строит параметры платёжной формы и прогоняет их через фильтры
type Builder struct {
	mu      sync.RWMutex
	filters map[Stage][]ParamFilter
}

// NewBuilder создаёт Builder без фильтров
func NewBuilder() *Builder {
	return &Builder{filters: make(map[Stage][]ParamFilter)}
}

// Use регистрирует фильтр; фильтры одной стадии вызываются в порядке регистрации
func (b *Builder) Use(stage Stage, filter ParamFilter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filters[stage] = append(b.filters[stage], filter)
}

// Build строит параметры формы для транзакции.
// Сначала работают фильтры режима, затем общие фильтры order_submission_params.
func (b *Builder) Build(tx repository.Transaction, s settings.Settings, urls ReturnURLs) *Params {
	var p *Params
	if ModeFor(s) == ModeShop {
		p = b.ShopParams(tx, s, urls)
	} else {
		p = b.QuickParams(tx, s)
	}
	b.apply(StageOrderSubmission, p)
	return p
}

// ShopParams параметры протокола магазина
func (b *Builder) ShopParams(tx repository.Transaction, s settings.Settings, urls ReturnURLs) *Params {
	p := NewParams()
	p.Set("shopId", s.ShopID)
	p.Set("scid", s.SCID)
	p.Set("sum", FormatAmount(tx.Amount))
	p.Set("customerNumber", tx.UID)
	p.Set("orderNumber", tx.OrderID)
	p.Set("shopSuccessURL", urls.Success)
	p.Set("shopFailURL", urls.Fail)
	p.Set("paymentType", s.DefaultPaymentMethod)
	p.Set("cms_name", s.CMSName)
	p.Set("order_id", tx.OrderID)
	p.Set("transaction_id", tx.YMID)
	if tx.Mail != "" {
		p.Set("cps_email", tx.Mail)
	}

	b.apply(StageShopParams, p)
	return p
}

// QuickParams параметры quick-pay формы
func (b *Builder) QuickParams(tx repository.Transaction, s settings.Settings) *Params {
	targets := orderTargetsPrefix + tx.OrderID

	p := NewParams()
	p.Set("receiver", s.Receiver)
	p.Set("formcomment", s.FormComment)
	p.Set("short-dest", targets)
	p.Set("writable-targets", "false")
	p.Set("comment-needed", "false")
	p.Set("label", tx.OrderID)
	p.Set("targets", targets)
	p.Set("sum", FormatAmount(tx.Amount))
	p.Set("quickpay-form", quickpayFormShop)
	p.Set("paymentType", s.DefaultPaymentMethod)
	p.Set("cms_name", s.CMSName)

	b.apply(StageQuickParams, p)
	return p
}

// BuildDonate параметры формы пожертвования; нулевая сумма оставляет её на выбор плательщика
func BuildDonate(receiver string, amount decimal.Decimal, comment string) *Params {
	p := NewParams()
	p.Set("receiver", receiver)
	p.Set("quickpay-form", quickpayFormShop)
	p.Set("targets", donateTargets)
	p.Set("payment-type", "PC")
	p.Set("comment", comment)
	if amount.IsPositive() {
		p.Set("sum", FormatAmount(amount))
	}
	return p
}

// FormatAmount сумма с двумя знаками после точки
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

func (b *Builder) apply(stage Stage, p *Params) {
	b.mu.RLock()
	filters := b.filters[stage]
	b.mu.RUnlock()

	for _, f := range filters {
		f(p)
	}
}
