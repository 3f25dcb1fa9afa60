package yamoney

import (
	"slices"

	"github.com/shestoi/yamoney-gateway/internal/settings"
)

const (
	TestEshopURL          = "https://demomoney.yandex.ru/eshop.xml"
	ProductionEshopURL    = "https://money.yandex.ru/eshop.xml"
	TestQuickpayURL       = "https://demomoney.yandex.ru/quickpay/confirm.xml"
	ProductionQuickpayURL = "https://money.yandex.ru/quickpay/confirm.xml"
)

// SubmissionURL адрес, на который отправляется платёжная форма
func SubmissionURL(s settings.Settings) string {
	if s.Shop {
		if s.IsTest() {
			return TestEshopURL
		}
		return ProductionEshopURL
	}
	return QuickpayURL(s)
}

// QuickpayURL адрес quick-pay формы
func QuickpayURL(s settings.Settings) string {
	if s.IsTest() {
		return TestQuickpayURL
	}
	return ProductionQuickpayURL
}

// Method способ оплаты
type Method struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

var methods = []Method{
	{Code: "PC", Label: "Payment from a Yandex.Money e-wallet"},
	{Code: "AC", Label: "Payment by any bank card"},
	{Code: "GP", Label: "Payment in cash via retailers and payment kiosks"},
	{Code: "MC", Label: "Payment from a mobile phone balance"},
	{Code: "WM", Label: "Payment from a WebMoney e-wallet"},
	{Code: "AB", Label: "Payment via Alfa-Click"},
	{Code: "SB", Label: "Payment via Sberbank: payment by text messages or Sberbank Online"},
	{Code: "MA", Label: "Payment via MasterPass"},
	{Code: "PB", Label: "Payment via Promsvyazbank"},
	{Code: "QW", Label: "Payment via QIWI Wallet"},
	{Code: "QP", Label: "Trust payment (Qppi.ru)"},
}

// PaymentMethods полный каталог способов оплаты
func PaymentMethods() []Method {
	return slices.Clone(methods)
}

// EnabledMethods способы оплаты из настроек в порядке каталога.
// Неизвестные коды отбрасываются; если в настройках пусто, включены все.
func EnabledMethods(s settings.Settings) []Method {
	if len(s.PaymentMethods) == 0 {
		return PaymentMethods()
	}

	enabled := make([]Method, 0, len(s.PaymentMethods))
	for _, m := range methods {
		if slices.Contains(s.PaymentMethods, m.Code) {
			enabled = append(enabled, m)
		}
	}
	return enabled
}
