package kafka

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	require.False(t, cfg.Enabled())
	require.Equal(t, "yamoney.success", cfg.SuccessTopic)
	require.Equal(t, "yamoney.fail", cfg.FailTopic)
}

func TestLoadFrom_Brokers(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"KAFKA_BROKERS":               "kafka-1:9092,kafka-2:9092",
		"KAFKA_TOPIC_PAYMENT_SUCCESS": "shop.payments.success",
	})
	require.NoError(t, err)

	require.True(t, cfg.Enabled())
	require.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers)
	require.Equal(t, "shop.payments.success", cfg.SuccessTopic)
	require.Equal(t, "yamoney.fail", cfg.FailTopic)
}
