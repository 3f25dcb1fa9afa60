package httpapi

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	RouteCheck        = "/yamoney/check"
	RouteComplete     = "/yamoney/complete"
	RouteFail         = "/yamoney/fail"
	RouteTemp         = "/yamoney/temp"
	RouteTransactions = "/yamoney/transactions"
	RouteDonate       = "/yamoney/donate"
	RouteMethods      = "/yamoney/methods"
)

// URLs строит абсолютные адреса страниц возврата от публичного адреса сервиса
type URLs struct {
	base string
}

// NewURLs проверяет, что publicBaseURL абсолютный
func NewURLs(publicBaseURL string) (URLs, error) {
	u, err := url.Parse(publicBaseURL)
	if err != nil {
		return URLs{}, fmt.Errorf("invalid public base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return URLs{}, fmt.Errorf("public base url must be absolute: %q", publicBaseURL)
	}
	return URLs{base: strings.TrimRight(publicBaseURL, "/")}, nil
}

// CompleteURL страница успешной оплаты
func (u URLs) CompleteURL() string {
	return u.base + RouteComplete
}

// FailURL страница неуспешной оплаты
func (u URLs) FailURL() string {
	return u.base + RouteFail
}
