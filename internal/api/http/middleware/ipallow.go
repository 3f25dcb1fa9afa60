package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	platformobservability "github.com/shestoi/yamoney-gateway/platform/observability"

	"github.com/shestoi/yamoney-gateway/internal/settings"
	"github.com/shestoi/yamoney-gateway/internal/yamoney"
)

// AllowlistSource отдаёт настройки со списком разрешённых адресов шлюза
type AllowlistSource interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// IPAllowlist пропускает запрос, только если адрес вызывающего есть в yamoney_ip.
// Иначе 403 до вызова обработчика; при ошибке чтения настроек тоже 403.
func IPAllowlist(source AllowlistSource, trustProxy bool, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r, trustProxy)
			log := platformobservability.L(r.Context(), logger).With(zap.String("ip", ip))

			cfg, err := source.Get(r.Context())
			if err != nil {
				log.Error("failed to load allowlist", zap.Error(err))
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			if !yamoney.IsAllowed(ip, cfg.IP) {
				log.Warn("callback from address outside allowlist")
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP адрес вызывающего: хост из RemoteAddr или,
// при trustProxy, первый адрес X-Forwarded-For
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
