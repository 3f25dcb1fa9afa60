package httpapi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewURLs(t *testing.T) {
	urls, err := NewURLs("https://shop.example/")
	require.NoError(t, err)
	require.Equal(t, "https://shop.example/yamoney/complete", urls.CompleteURL())
	require.Equal(t, "https://shop.example/yamoney/fail", urls.FailURL())

	urls, err = NewURLs("http://127.0.0.1:8080/pay")
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8080/pay/yamoney/complete", urls.CompleteURL())

	for _, bad := range []string{"", "shop.example", "/relative", "://broken"} {
		_, err := NewURLs(bad)
		require.Error(t, err, bad)
	}
}
