package yamoney

import "strings"

// AnyIP запись списка, разрешающая любой адрес
const AnyIP = "0.0.0.0"

// IsAllowed проверяет адрес вызывающего по списку (одна запись на строку).
// Пустой список запрещает всё.
func IsAllowed(callerIP, allowlist string) bool {
	for _, line := range strings.Split(allowlist, "\n") {
		entry := strings.TrimSpace(line)
		if entry == "" {
			continue
		}
		if entry == AnyIP || entry == callerIP {
			return true
		}
	}
	return false
}
