package config

import (
	"github.com/spf13/viper"
	"sync"
	"time"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		viper.AutomaticEnv()

		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("telegram_chat_id", "TELEGRAM_CHAT_ID")
		viper.BindEnv("api_pro_key", "API_PRO_KEY")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("log_level", "LOG_LEVEL")
		viper.BindEnv("lang", "LANG")
		viper.BindEnv("cycle_interval", "CYCLE_INTERVAL")
		viper.BindEnv("database_driver", "DATABASE_DRIVER")
		viper.BindEnv("database_dsn", "DATABASE_DSN")
		viper.BindEnv("redis_addr", "REDIS_ADDR")
		viper.BindEnv("redis_password", "REDIS_PASSWORD")
		viper.BindEnv("redis_db", "REDIS_DB")
		viper.BindEnv("watchlist_path", "WATCHLIST_PATH")
		viper.BindEnv("chart_font_path", "CHART_FONT_PATH")
		viper.BindEnv("browser_render", "BROWSER_RENDER")
		viper.BindEnv("wechat_enabled", "WECHAT_ENABLED")
		viper.BindEnv("wechat_group", "WECHAT_GROUP")
		viper.BindEnv("wechat_storage_path", "WECHAT_STORAGE_PATH")

		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")
		viper.SetDefault("cycle_interval", "5m")
		viper.SetDefault("database_driver", "sqlite")
		viper.SetDefault("database_dsn", "/app/data/monitor.db")
		viper.SetDefault("redis_db", 0)
		viper.SetDefault("watchlist_path", "watchlist.yaml")
		viper.SetDefault("browser_render", false)
		viper.SetDefault("wechat_enabled", false)
		viper.SetDefault("wechat_storage_path", "wechat-storage.json")
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

func GetInt64(key string) int64 {
	InitConfig()
	return viper.GetInt64(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

func GetDuration(key string) time.Duration {
	InitConfig()
	return viper.GetDuration(key)
}
