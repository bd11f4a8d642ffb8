package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the name of the config file looked up in the config directory.
const FileName = "tortuga.cfg.json"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds sqlite backend settings. An empty Path keeps the database in memory.
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// StorageConfig selects and configures the game journal backend.
type StorageConfig struct {
	Type          string        `json:"type" mapstructure:"type"`
	WriteInterval time.Duration `json:"writeInterval" mapstructure:"writeInterval"`
	Memory        MemoryConfig  `json:"memory" mapstructure:"memory"`
	SQLite        SQLiteConfig  `json:"sqlite" mapstructure:"sqlite"`
}

// DBConfig holds postgres connection settings.
type DBConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// OTelConfig holds metric export settings.
type OTelConfig struct {
	Enabled        bool
	ServiceName    string
	ExportInterval time.Duration
}

// InfluxConfig holds the move telemetry sink settings.
type InfluxConfig struct {
	Enabled    bool
	Host       string
	Port       string
	Protocol   string
	Token      string
	Org        string
	Bucket     string
	BackupPath string
}

// GraylogConfig holds the remote log sink settings.
type GraylogConfig struct {
	Enabled bool
	Address string
}

// MonitorConfig holds the status file settings. The file lives in logsDir.
type MonitorConfig struct {
	Enabled  bool
	Interval time.Duration
	FileName string
}

// GameConfig holds game setup. A zero Seed means "pick one at random".
type GameConfig struct {
	Seed        uint64
	HoverBuffer int
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// SetDefaults registers every default value without reading a file.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./tortugalogs")

	viper.SetDefault("game.seed", 0)
	viper.SetDefault("game.hoverBuffer", 256)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.writeInterval", "2s")
	viper.SetDefault("storage.memory.outputDir", "./games")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpPath", "")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "tortuga")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "tortuga")
	viper.SetDefault("otel.exportInterval", "15s")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "tortuga")
	viper.SetDefault("influx.bucket", "moves")
	viper.SetDefault("influx.backupPath", "./tortugalogs/influx_backup.lp.gz")

	viper.SetDefault("monitor.enabled", true)
	viper.SetDefault("monitor.interval", "1s")
	viper.SetDefault("monitor.fileName", "status.json")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStorageConfig returns the storage section.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:          viper.GetString("storage.type"),
		WriteInterval: viper.GetDuration("storage.writeInterval"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
	}
}

// GetDBConfig returns the postgres connection settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// GetOTelConfig returns the metric export settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		ExportInterval: viper.GetDuration("otel.exportInterval"),
	}
}

// GetInfluxConfig returns the influx sink settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:    viper.GetBool("influx.enabled"),
		Host:       viper.GetString("influx.host"),
		Port:       viper.GetString("influx.port"),
		Protocol:   viper.GetString("influx.protocol"),
		Token:      viper.GetString("influx.token"),
		Org:        viper.GetString("influx.org"),
		Bucket:     viper.GetString("influx.bucket"),
		BackupPath: viper.GetString("influx.backupPath"),
	}
}

// GetGraylogConfig returns the graylog sink settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetGameConfig returns the game setup.
func GetGameConfig() GameConfig {
	return GameConfig{
		Seed:        viper.GetUint64("game.seed"),
		HoverBuffer: viper.GetInt("game.hoverBuffer"),
	}
}

// GetMonitorConfig returns the status monitor settings.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Enabled:  viper.GetBool("monitor.enabled"),
		Interval: viper.GetDuration("monitor.interval"),
		FileName: viper.GetString("monitor.fileName"),
	}
}
