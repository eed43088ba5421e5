package providers

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"visitd/internal/structures"

	"github.com/spf13/viper"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("webServer.host", "127.0.0.1")
	v.SetDefault("webServer.port", 8080)
	v.SetDefault("persistence.saveInterval", 5*time.Minute)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.mode", 0644)
	v.SetDefault("detector.searchRadiiKm", []float64{1, 2, 5})
	v.SetDefault("detector.recentDistanceKm", 10)
	v.SetDefault("detector.recentWindow", time.Hour)
	v.SetDefault("detector.relocationKm", 100)
	v.SetDefault("notification.debounce", 30*time.Second)
	v.SetDefault("notification.webhookTimeout", 5*time.Second)
	v.SetDefault("badges.timeZone", "UTC")
	v.SetDefault("eventLog.maxEntries", 10000)
	v.SetDefault("sync.namespace", "visitd")
	v.SetDefault("sync.interval", 15*time.Minute)
	v.SetDefault("sync.maxAttempts", 5)
	v.SetDefault("sync.initialDelay", 500*time.Millisecond)
	v.SetDefault("sync.maxDelay", 30*time.Second)
	v.SetDefault("sync.maxConflicts", 3)
	v.SetDefault("sync.timeout", 10*time.Second)
	v.SetDefault("cache.size", 16)
}

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	v := viper.New()
	setDefaults(v)

	filename := filepath.Base(flags.ConfigPath)
	v.AddConfigPath(filepath.Dir(flags.ConfigPath))
	v.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	v.SetConfigType("yaml")

	_ = v.BindEnv("logger.level", "VISITD_LOG_LEVEL")
	_ = v.BindEnv("logger.dir", "VISITD_LOG_DIR")
	_ = v.BindEnv("persistence.filePath", "VISITD_STATE_FILE")
	_ = v.BindEnv("persistence.saveInterval", "VISITD_SAVE_INTERVAL")
	_ = v.BindEnv("persistence.archiveDir", "VISITD_ARCHIVE_DIR")
	_ = v.BindEnv("boundary.path", "VISITD_BOUNDARY_PATH")
	_ = v.BindEnv("badges.timeZone", "VISITD_TIME_ZONE")
	_ = v.BindEnv("notification.webhookURL", "VISITD_WEBHOOK_URL")
	_ = v.BindEnv("sync.store", "VISITD_SYNC_STORE")
	_ = v.BindEnv("sync.url", "VISITD_SYNC_URL")
	_ = v.BindEnv("sync.interval", "VISITD_SYNC_INTERVAL")
	_ = v.BindEnv("cache.enabled", "VISITD_CACHE_ENABLED")
	_ = v.BindEnv("cache.size", "VISITD_CACHE_SIZE")

	err := v.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "VisitDaemon"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
