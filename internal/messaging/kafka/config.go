package kafka

import "github.com/IBM/sarama"

// Config описывает подключение к брокерам. Учётные данные необязательны:
// пустой Username означает подключение без SASL.
type Config struct {
	Brokers  []string
	ClientID string
	Username string
	Password string
}

func (c Config) saramaConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1 // требование идемпотентного продюсера

	if c.ClientID != "" {
		config.ClientID = c.ClientID
	}
	if c.Username != "" {
		config.Net.SASL.Enable = true
		config.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		config.Net.SASL.User = c.Username
		config.Net.SASL.Password = c.Password
	}

	return config
}
