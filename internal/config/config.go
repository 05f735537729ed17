package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type AppCfg struct{ Env, Port, BaseURL string }
type DBCfg struct{ DSN string }
type RedisCfg struct{ Addr string }

// ProvidersCfg carries environment-level provider settings: default
// base URLs used only when a stored configuration omits them, and the
// demo-fallback gate.
type ProvidersCfg struct {
	GlobalCheckoutTestURL string
	GlobalCheckoutLiveURL string
	RegionalTokenTestURL  string
	RegionalTokenLiveURL  string
	NetworkGatewayTestURL string
	NetworkGatewayLiveURL string

	// DemoFallback keeps checkout flows alive by synthesizing a demo
	// intent when a live creation call fails. On by default; switch
	// off in production so a misconfigured provider fails loudly
	// instead of faking payments.
	DemoFallback bool

	HTTPTimeout time.Duration
}

type SecurityCfg struct {
	AdminToken string // guards the provider configuration APIs
}

type Cfg struct {
	App       AppCfg
	DB        DBCfg
	Redis     RedisCfg
	Providers ProvidersCfg
	Sec       SecurityCfg
}

func Load() Cfg {
	// 1) Load .env into process env (if file exists)
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}

	// 2) Read from env via viper
	viper.AutomaticEnv()
	viper.SetDefault("APP_ENV", "test")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_BASE_URL", "http://localhost:8080")
	viper.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	viper.SetDefault("ADMIN_TOKEN", "")
	viper.SetDefault("DEMO_FALLBACK", true)
	viper.SetDefault("PROVIDER_HTTP_TIMEOUT_SEC", 10)

	viper.SetDefault("GLOBAL_CHECKOUT_TEST_URL", "https://checkout-test.globalpay.example/v1")
	viper.SetDefault("GLOBAL_CHECKOUT_LIVE_URL", "https://checkout-live.globalpay.example/v1")
	viper.SetDefault("REGIONAL_TOKEN_TEST_URL", "https://sandbox.regionpay.example/api/v2")
	viper.SetDefault("REGIONAL_TOKEN_LIVE_URL", "https://app.regionpay.example/api/v2")
	viper.SetDefault("NETWORK_GATEWAY_TEST_URL", "https://api.sandbox.netgate.example/v2")
	viper.SetDefault("NETWORK_GATEWAY_LIVE_URL", "https://api.netgate.example/v2")

	cfg := Cfg{
		App: AppCfg{
			Env:     viper.GetString("APP_ENV"),
			Port:    viper.GetString("APP_PORT"),
			BaseURL: strings.TrimRight(viper.GetString("APP_BASE_URL"), "/"),
		},
		DB:    DBCfg{DSN: viper.GetString("DB_DSN")},
		Redis: RedisCfg{Addr: viper.GetString("REDIS_ADDR")},
		Providers: ProvidersCfg{
			GlobalCheckoutTestURL: viper.GetString("GLOBAL_CHECKOUT_TEST_URL"),
			GlobalCheckoutLiveURL: viper.GetString("GLOBAL_CHECKOUT_LIVE_URL"),
			RegionalTokenTestURL:  viper.GetString("REGIONAL_TOKEN_TEST_URL"),
			RegionalTokenLiveURL:  viper.GetString("REGIONAL_TOKEN_LIVE_URL"),
			NetworkGatewayTestURL: viper.GetString("NETWORK_GATEWAY_TEST_URL"),
			NetworkGatewayLiveURL: viper.GetString("NETWORK_GATEWAY_LIVE_URL"),
			DemoFallback:          viper.GetBool("DEMO_FALLBACK"),
			HTTPTimeout:           time.Duration(viper.GetInt("PROVIDER_HTTP_TIMEOUT_SEC")) * time.Second,
		},
		Sec: SecurityCfg{
			AdminToken: strings.TrimSpace(viper.GetString("ADMIN_TOKEN")),
		},
	}

	// 3) Fail fast on required settings
	if cfg.DB.DSN == "" {
		log.Fatal().Msg("DB_DSN is required")
	}
	return cfg
}
