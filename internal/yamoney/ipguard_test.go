package yamoney

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		name      string
		ip        string
		allowlist string
		want      bool
	}{
		{name: "wildcard", ip: "10.1.2.3", allowlist: "0.0.0.0", want: true},
		{name: "wildcard among entries", ip: "10.1.2.3", allowlist: "1.1.1.1\n0.0.0.0", want: true},
		{name: "wildcard empty caller", ip: "", allowlist: "0.0.0.0", want: true},
		{name: "wildcard unparsable caller", ip: "garbage", allowlist: "0.0.0.0", want: true},
		{name: "wildcard ipv6 loopback", ip: "::1", allowlist: "0.0.0.0", want: true},
		{name: "exact match with whitespace", ip: "77.75.157.168", allowlist: "  77.75.157.168  \n77.75.157.169", want: true},
		{name: "blank lines skipped", ip: "77.75.157.169", allowlist: "\n\n77.75.157.169\n\n", want: true},
		{name: "crlf entries", ip: "77.75.157.168", allowlist: "77.75.157.168\r\n77.75.157.169\r\n", want: true},
		{name: "no match", ip: "10.0.0.1", allowlist: "77.75.157.168\n77.75.157.169", want: false},
		{name: "no prefix match", ip: "77.75.157.1", allowlist: "77.75.157.168", want: false},
		{name: "empty allowlist", ip: "10.0.0.1", allowlist: "", want: false},
		{name: "only blanks", ip: "10.0.0.1", allowlist: " \n \n", want: false},
		{name: "empty caller", ip: "", allowlist: "77.75.157.168", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsAllowed(tt.ip, tt.allowlist))
		})
	}
}
