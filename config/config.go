package config

import (
	"sync"
	"time"

	"github.com/spf13/viper"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		viper.AutomaticEnv()

		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("db_path", "DB_PATH")
		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("api_port", "API_PORT")
		viper.BindEnv("dashboard_base_url", "DASHBOARD_BASE_URL")
		viper.BindEnv("dashboard_secret_key", "DASHBOARD_SECRET_KEY")
		viper.BindEnv("quote_base_url", "QUOTE_BASE_URL")
		viper.BindEnv("timezone", "TIMEZONE")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "BOT_LANG")
		viper.BindEnv("price_check_interval", "PRICE_CHECK_INTERVAL")
		viper.BindEnv("panic_check_interval", "PANIC_CHECK_INTERVAL")
		viper.BindEnv("digest_interval", "DIGEST_INTERVAL")

		viper.SetDefault("db_path", "radar.db")
		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("api_port", 8001)
		viper.SetDefault("dashboard_base_url", "http://localhost:8001")
		viper.SetDefault("quote_base_url", "https://query1.finance.yahoo.com")
		viper.SetDefault("timezone", "America/Sao_Paulo")
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "pt_BR")
		viper.SetDefault("price_check_interval", 5*time.Minute)
		viper.SetDefault("panic_check_interval", 5*time.Minute)
		viper.SetDefault("digest_interval", 10*time.Minute)
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

func GetDuration(key string) time.Duration {
	InitConfig()
	return viper.GetDuration(key)
}

// Location resolves the reference timezone used for schedule matching and
// history timestamps. Unknown names fall back to UTC.
func Location() *time.Location {
	loc, err := time.LoadLocation(GetString("timezone"))
	if err != nil {
		return time.UTC
	}
	return loc
}
