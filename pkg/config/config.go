package config

import (
	"github.com/kelseyhightower/envconfig"

	pkgtls "github.com/Domenicogestionale/gestionale-domenico/pkg/tls"
)

type Config struct {
	Port             string `envconfig:"PORT" default:"8080"`
	AWSRegion        string `envconfig:"AWS_REGION" default:"eu-south-1"`
	ProductTableName string `envconfig:"PRODUCT_TABLE_NAME" default:"products"`
	LogLevel         string `envconfig:"LOG_LEVEL" default:"info"`

	KafkaBrokers    string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	ScanTopic       string `envconfig:"SCAN_TOPIC" default:"scan-events"`
	StockTopic      string `envconfig:"STOCK_TOPIC" default:"stock-events"`
	ConsumerGroupID string `envconfig:"CONSUMER_GROUP_ID" default:"gestionale-inventory"`
	ScanEnabled     bool   `envconfig:"SCAN_CONSUMER_ENABLED" default:"true"`

	TLS pkgtls.TLSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
