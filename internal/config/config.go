package config

import (
	"flag"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var once sync.Once
var logger *zap.SugaredLogger
var loggerOnce sync.Once

// isTestRun returns true if the current process is a Go test binary.
func isTestRun() bool {
	return flag.Lookup("test.v") != nil || filepath.Ext(os.Args[0]) == ".test"
}

func setDefaults() {
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", "10s")
	viper.SetDefault("server.write_timeout", "10s")
	viper.SetDefault("cache.search_radius_meters", 5000.0)
	viper.SetDefault("cache.weather_ttl", "1h")
	viper.SetDefault("upstream.timeout", "10s")
	viper.SetDefault("openweathermap.weather_url", "https://api.openweathermap.org/data/2.5/weather")
	viper.SetDefault("openweathermap.forecast_url", "https://api.openweathermap.org/data/2.5/forecast")
	viper.SetDefault("openweathermap.icon_url", "https://openweathermap.org/img/wn/")
	viper.SetDefault("openmeteo.forecast_url", "https://api.open-meteo.com/v1/forecast")
}

func initConfig() {
	once.Do(func() {
		setDefaults()

		root, err := getProjectRoot()
		if err != nil {
			GetLogger().Errorw("Error finding project root", "error", err)
		}
		viper.SetConfigType("yaml")

		viper.SetConfigName("config")
		viper.AddConfigPath(root)
		if err = viper.ReadInConfig(); err != nil {
			GetLogger().Errorw("Error reading config file", "error", err)
		}

		if isTestRun() {
			viper.SetConfigName("config_test")
			viper.AddConfigPath(root)
			if err = viper.MergeInConfig(); err != nil {
				GetLogger().Errorw("Error reading test config file", "error", err)
			}
		}
	})
}

func getProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func GetOpenWeatherMapAPIKey() string {
	_ = godotenv.Load()
	return os.Getenv("OPENWEATHERMAP_API_KEY")
}

func GetOpenWeatherWeatherURL() string {
	initConfig()
	return viper.GetString("openweathermap.weather_url")
}

func GetOpenWeatherForecastURL() string {
	initConfig()
	return viper.GetString("openweathermap.forecast_url")
}

func GetOpenWeatherIconURL() string {
	initConfig()
	return viper.GetString("openweathermap.icon_url")
}

func GetOpenMeteoForecastURL() string {
	initConfig()
	return viper.GetString("openmeteo.forecast_url")
}

func GetRedisAddr() string {
	initConfig()
	return viper.GetString("redis.addr")
}

func GetServerPort() string {
	initConfig()
	return viper.GetString("server.port")
}

func GetServerTimeout(key string) time.Duration {
	initConfig()
	dur, err := time.ParseDuration(viper.GetString("server." + key))
	if err != nil {
		return 10 * time.Second
	}
	return dur
}

// GetSearchRadiusMeters returns the radius within which two query points
// share a cached answer.
func GetSearchRadiusMeters() float64 {
	initConfig()
	return viper.GetFloat64("cache.search_radius_meters")
}

// GetWeatherTTL returns how long a cached weather snapshot stays valid.
func GetWeatherTTL() time.Duration {
	initConfig()
	dur, err := time.ParseDuration(viper.GetString("cache.weather_ttl"))
	if err != nil {
		return time.Hour
	}
	return dur
}

// GetUpstreamTimeout bounds every outbound provider call.
func GetUpstreamTimeout() time.Duration {
	initConfig()
	dur, err := time.ParseDuration(viper.GetString("upstream.timeout"))
	if err != nil {
		return 10 * time.Second
	}
	return dur
}

// ReloadConfigForTest resets the config singleton and reloads Viper config. Use only in tests.
func ReloadConfigForTest() {
	once = sync.Once{}
	initConfig()
}

func GetLogger() *zap.SugaredLogger {
	loggerOnce.Do(func() {
		l, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		logger = l.Sugar()
	})
	return logger
}

// GetRateLimiterCleanupTimeout returns the rate limiter cleanup timeout as a time.Duration.
// Defaults to 3m if not set or invalid.
func GetRateLimiterCleanupTimeout() time.Duration {
	initConfig()
	durStr := viper.GetString("rate_limiter.cleanup_timeout")
	if durStr == "" {
		durStr = "3m"
	}
	dur, err := time.ParseDuration(durStr)
	if err != nil {
		return 3 * time.Minute
	}
	return dur
}

// GetGlobalRateLimiterConfig returns the rate and burst for the global rate limiter from config.
func GetGlobalRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.global.rate")
	if rate == 0 {
		rate = 10
	}
	burst = viper.GetInt("rate_limiter.global.burst")
	if burst == 0 {
		burst = 10
	}
	return
}

// GetParamRateLimiterConfig returns the rate and burst for the per-coordinate rate limiter from config.
func GetParamRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.param.rate")
	if rate == 0 {
		rate = 2
	}
	burst = viper.GetInt("rate_limiter.param.burst")
	if burst == 0 {
		burst = 2
	}
	return
}
