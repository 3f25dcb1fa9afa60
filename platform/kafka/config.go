package kafka

// Config описывает подключение к Kafka и топики событий платежей
type Config struct {
	// Brokers список брокеров через запятую: "broker1:9092,broker2:9092".
	// Пустой список отключает публикацию событий.
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	// SuccessTopic топик для событий успешной оплаты
	SuccessTopic string `env:"KAFKA_TOPIC_PAYMENT_SUCCESS" envDefault:"yamoney.success"`
	// FailTopic топик для событий неуспешной оплаты
	FailTopic string `env:"KAFKA_TOPIC_PAYMENT_FAIL" envDefault:"yamoney.fail"`
}

// Enabled сообщает, настроена ли публикация в Kafka
func (c Config) Enabled() bool {
	return len(c.Brokers) > 0
}
