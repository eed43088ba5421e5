package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Persistence struct {
	FilePath     string        `yaml:"filePath" validate:"required|unixPath"`
	SaveInterval time.Duration `yaml:"saveInterval" validate:"required|min:1"`
	// ArchiveDir receives events dropped from the live log; empty disables it.
	ArchiveDir string        `yaml:"archiveDir"`
	ArchiveTTL time.Duration `yaml:"archiveTTL"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type BoundaryConfig struct {
	Path      string `yaml:"path" validate:"required"`
	Format    string `yaml:"format" validate:"in:geojson,shapefile"`
	NameField string `yaml:"nameField"`
}

type DetectorConfig struct {
	SearchRadiiKm    []float64     `yaml:"searchRadiiKm"`
	RecentDistanceKm float64       `yaml:"recentDistanceKm"`
	RecentWindow     time.Duration `yaml:"recentWindow"`
	RelocationKm     float64       `yaml:"relocationKm"`
}

type NotificationConfig struct {
	Debounce       time.Duration `yaml:"debounce"`
	WebhookURL     string        `yaml:"webhookURL"`
	WebhookTimeout time.Duration `yaml:"webhookTimeout"`
}

type BadgesConfig struct {
	TimeZone string `yaml:"timeZone"`
}

type EventLogConfig struct {
	Retention  time.Duration `yaml:"retention"`
	MaxEntries int           `yaml:"maxEntries"`
}

type SyncConfig struct {
	// Store is one of memory, redis, sqlite; empty disables sync.
	Store        string        `yaml:"store" validate:"in:memory,redis,sqlite"`
	URL          string        `yaml:"url"`
	Namespace    string        `yaml:"namespace"`
	Interval     time.Duration `yaml:"interval"`
	MaxAttempts  int           `yaml:"maxAttempts"`
	InitialDelay time.Duration `yaml:"initialDelay"`
	MaxDelay     time.Duration `yaml:"maxDelay"`
	MaxConflicts int           `yaml:"maxConflicts"`
	Timeout      time.Duration `yaml:"timeout"`
}

type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
	TTL     int  `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	AppName      string
	Debug        bool
	Path         string
	WebServer    Server             `yaml:"webServer"`
	Persistence  Persistence        `yaml:"persistence"`
	Logger       LoggerConfig       `yaml:"logger"`
	Boundary     BoundaryConfig     `yaml:"boundary"`
	Detector     DetectorConfig     `yaml:"detector"`
	Notification NotificationConfig `yaml:"notification"`
	Badges       BadgesConfig       `yaml:"badges"`
	EventLog     EventLogConfig     `yaml:"eventLog"`
	Sync         SyncConfig         `yaml:"sync"`
	Cache        CacheConfig        `yaml:"cache"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

type CliFlags struct {
	ConfigPath string
	DebugMode  bool
}
