package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port          string
	DBDSN         string
	RedisURL      string
	PaymentURL    string
	PaymentAPIKey string
	LogFile       string
	SweepInterval time.Duration
}

func Load() Config {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	_ = viper.ReadInConfig() // optional; env vars still apply without it
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DB_DSN", "driveshare.db")
	viper.SetDefault("REDIS_URL", "") // empty selects the in-process cache store
	viper.SetDefault("PAYMENT_URL", "")
	viper.SetDefault("PAYMENT_API_KEY", "")
	viper.SetDefault("LOG_FILE", "./driveshare.log")
	viper.SetDefault("SWEEP_INTERVAL", "1h")

	cfg := Config{
		Port:          viper.GetString("PORT"),
		DBDSN:         viper.GetString("DB_DSN"),
		RedisURL:      viper.GetString("REDIS_URL"),
		PaymentURL:    viper.GetString("PAYMENT_URL"),
		PaymentAPIKey: viper.GetString("PAYMENT_API_KEY"),
		LogFile:       viper.GetString("LOG_FILE"),
		SweepInterval: viper.GetDuration("SWEEP_INTERVAL"),
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Hour
	}
	log.Printf("[config] PORT=%s DB_DSN=%s REDIS_URL=%s PAYMENT_URL=%s LOG_FILE=%s",
		cfg.Port, cfg.DBDSN, cfg.RedisURL, cfg.PaymentURL, cfg.LogFile)
	return cfg
}
