// Package config loads the service configuration: defaults first, then an
// optional TOML file, then environment overrides for the deployment-specific
// bits (storage and blob drivers).
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"rpascore/internal/blob"
	"rpascore/internal/core"
	"rpascore/pkg/compliance"
	"rpascore/pkg/domain"
	"rpascore/pkg/logger"
)

// Config is the full service configuration tree.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Logging    logger.Config    `toml:"logging"`
	Storage    StorageConfig    `toml:"storage"`
	Blob       BlobConfig       `toml:"blob"`
	Compliance ComplianceConfig `toml:"compliance"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host                   string `toml:"host"`
	Port                   int    `toml:"port"`
	ReadTimeoutSeconds     int    `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `toml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"`
}

// Addr returns the host:port the server binds.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ReadTimeout returns the configured read timeout.
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the configured write timeout.
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// ShutdownTimeout returns how long a graceful shutdown may take.
func (s ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutSeconds) * time.Second
}

// StorageConfig selects and parameterizes the persistent store.
type StorageConfig struct {
	Driver   string         `toml:"driver"`
	SQLite   SQLiteConfig   `toml:"sqlite"`
	Postgres PostgresConfig `toml:"postgres"`
}

// SQLiteConfig locates the sqlite database file.
type SQLiteConfig struct {
	Path string `toml:"path"`
}

// PostgresConfig carries the postgres connection string.
type PostgresConfig struct {
	DSN string `toml:"dsn"`
}

// BlobConfig selects and parameterizes attachment storage.
type BlobConfig struct {
	Driver string       `toml:"driver"`
	FS     FSBlobConfig `toml:"fs"`
	S3     S3BlobConfig `toml:"s3"`
}

// FSBlobConfig locates the filesystem blob root.
type FSBlobConfig struct {
	Root string `toml:"root"`
}

// S3BlobConfig parameterizes the S3 / MinIO attachment driver.
type S3BlobConfig struct {
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	Endpoint  string `toml:"endpoint"`
	PathStyle bool   `toml:"path_style"`
}

// ComplianceConfig carries the regulatory tables the engine evaluates against.
type ComplianceConfig struct {
	WeightClasses      []WeightClassConfig `toml:"weight_classes"`
	Excluded           ExcludedConfig      `toml:"excluded"`
	AdvisoryAltitudeFT float64             `toml:"advisory_altitude_ft"`
	IdentifierRetries  int                 `toml:"identifier_retries"`
	Schedule           ScheduleConfig      `toml:"schedule"`
	ReportingHours     map[string]int      `toml:"reporting_hours"`
	ExclusiveSafe      [][2]string         `toml:"exclusive_safe"`
}

// WeightClassConfig is one classification band: the category applies from
// min_kg up to the next band's boundary.
type WeightClassConfig struct {
	Category string  `toml:"category"`
	MinKG    float64 `toml:"min_kg"`
}

// ExcludedConfig bounds the operator-declared excluded category.
type ExcludedConfig struct {
	MaxWeightKG   float64 `toml:"max_weight_kg"`
	MaxAltitudeFT float64 `toml:"max_altitude_ft"`
}

// ScheduleConfig groups the obligation windows per obligation type.
type ScheduleConfig struct {
	Maintenance WindowConfig         `toml:"maintenance"`
	Certificate WindowConfig         `toml:"certificate"`
	Incident    IncidentWindowConfig `toml:"incident"`
}

// WindowConfig expresses warning and grace windows in days.
type WindowConfig struct {
	WarningDays int `toml:"warning_days"`
	GraceDays   int `toml:"grace_days"`
}

// IncidentWindowConfig expresses the incident reporting windows in hours.
type IncidentWindowConfig struct {
	WarningHours int `toml:"warning_hours"`
	GraceHours   int `toml:"grace_hours"`
}

// Default returns the built-in configuration: a local sqlite register,
// filesystem attachments, and the standard Part 101 regulatory values.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:                   "0.0.0.0",
			Port:                   8080,
			ReadTimeoutSeconds:     15,
			WriteTimeoutSeconds:    30,
			ShutdownTimeoutSeconds: 10,
		},
		Logging: logger.Config{Level: "info", Format: "json"},
		Storage: StorageConfig{
			Driver: string(core.StorageSQLite),
			SQLite: SQLiteConfig{Path: "rpascore.db"},
		},
		Blob: BlobConfig{
			Driver: string(blob.DriverFilesystem),
			FS:     FSBlobConfig{Root: "./blobdata"},
		},
		Compliance: ComplianceConfig{
			WeightClasses: []WeightClassConfig{
				{Category: string(domain.CategoryMicro), MinKG: 0},
				{Category: string(domain.CategorySmall), MinKG: 0.25},
				{Category: string(domain.CategoryMedium), MinKG: 25},
				{Category: string(domain.CategoryLarge), MinKG: 150},
			},
			Excluded:           ExcludedConfig{MaxWeightKG: 25, MaxAltitudeFT: 400},
			AdvisoryAltitudeFT: 400,
			IdentifierRetries:  3,
			Schedule: ScheduleConfig{
				Maintenance: WindowConfig{WarningDays: 7},
				Certificate: WindowConfig{WarningDays: 30},
				Incident:    IncidentWindowConfig{WarningHours: 12},
			},
			ReportingHours: map[string]int{
				string(domain.IncidentCritical): 24,
				string(domain.IncidentHigh):     24,
				string(domain.IncidentMedium):   72,
				string(domain.IncidentLow):      72,
			},
		},
	}
}

// Load builds the effective configuration: defaults, the TOML file at path
// (or $RPASCORE_CONFIG when path is empty; no file at all is fine), then
// environment overrides. Unknown keys in the file are an error, catching
// typos before they silently fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("RPASCORE_CONFIG")
	}
	if path != "" {
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return Config{}, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("RPASCORE_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("RPASCORE_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLite.Path = v
	}
	if v := os.Getenv("RPASCORE_POSTGRES_DSN"); v != "" {
		cfg.Storage.Postgres.DSN = v
	}
	if v := os.Getenv("RPASCORE_BLOB_DRIVER"); v != "" {
		cfg.Blob.Driver = v
	}
	if v := os.Getenv("RPASCORE_BLOB_FS_ROOT"); v != "" {
		cfg.Blob.FS.Root = v
	}
	if v := os.Getenv("RPASCORE_BLOB_S3_BUCKET"); v != "" {
		cfg.Blob.S3.Bucket = v
	}
	if v := os.Getenv("RPASCORE_BLOB_S3_REGION"); v != "" {
		cfg.Blob.S3.Region = v
	}
	if v := os.Getenv("RPASCORE_BLOB_S3_ENDPOINT"); v != "" {
		cfg.Blob.S3.Endpoint = v
	}
	if v := os.Getenv("RPASCORE_BLOB_S3_PATH_STYLE"); v != "" {
		if pathStyle, err := strconv.ParseBool(v); err == nil {
			cfg.Blob.S3.PathStyle = pathStyle
		}
	}
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	switch core.StorageDriver(c.Storage.Driver) {
	case core.StorageMemory, core.StorageSQLite, core.StoragePostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch blob.Driver(c.Blob.Driver) {
	case blob.DriverFilesystem, blob.DriverS3, blob.DriverMemory:
	default:
		return fmt.Errorf("unknown blob driver %q", c.Blob.Driver)
	}
	if len(c.Compliance.WeightClasses) == 0 {
		return fmt.Errorf("at least one weight class required")
	}
	for i, wc := range c.Compliance.WeightClasses {
		if wc.Category == "" {
			return fmt.Errorf("weight class %d missing category", i)
		}
		if wc.MinKG < 0 {
			return fmt.Errorf("weight class %q has negative min_kg", wc.Category)
		}
	}
	if c.Compliance.IdentifierRetries < 1 {
		return fmt.Errorf("identifier retry budget must be at least 1")
	}
	return nil
}

// Engine converts the compliance section into the engine configuration.
func (c Config) Engine() core.Config {
	classes := make([]compliance.WeightClass, len(c.Compliance.WeightClasses))
	for i, wc := range c.Compliance.WeightClasses {
		classes[i] = compliance.WeightClass{Category: domain.WeightCategory(wc.Category), MinKG: wc.MinKG}
	}
	reporting := make(map[domain.IncidentSeverity]int, len(c.Compliance.ReportingHours))
	for severity, hours := range c.Compliance.ReportingHours {
		reporting[domain.IncidentSeverity(severity)] = hours
	}
	return core.Config{
		Classification: compliance.ClassificationTable{Classes: classes},
		Excluded: compliance.ExcludedLimits{
			MaxWeightKG:   c.Compliance.Excluded.MaxWeightKG,
			MaxAltitudeFT: c.Compliance.Excluded.MaxAltitudeFT,
		},
		AdvisoryAltitudeFT: c.Compliance.AdvisoryAltitudeFT,
		IdentifierRetries:  c.Compliance.IdentifierRetries,
		MaintenanceWindows: days(c.Compliance.Schedule.Maintenance),
		CertificateWindows: days(c.Compliance.Schedule.Certificate),
		IncidentWindows: compliance.Windows{
			Warning: time.Duration(c.Compliance.Schedule.Incident.WarningHours) * time.Hour,
			Grace:   time.Duration(c.Compliance.Schedule.Incident.GraceHours) * time.Hour,
		},
		ReportingHours: reporting,
		ConflictPolicy: compliance.ConflictPolicy{ExclusiveSafe: c.Compliance.ExclusiveSafe},
	}
}

func days(w WindowConfig) compliance.Windows {
	return compliance.Windows{
		Warning: time.Duration(w.WarningDays) * 24 * time.Hour,
		Grace:   time.Duration(w.GraceDays) * 24 * time.Hour,
	}
}

// Store converts the storage section for the store factory.
func (c Config) Store() core.StorageConfig {
	return core.StorageConfig{
		Driver:      core.StorageDriver(c.Storage.Driver),
		SQLitePath:  c.Storage.SQLite.Path,
		PostgresDSN: c.Storage.Postgres.DSN,
	}
}

// BlobStore converts the blob section for the blob factory.
func (c Config) BlobStore() blob.Config {
	return blob.Config{
		Driver: blob.Driver(c.Blob.Driver),
		FSRoot: c.Blob.FS.Root,
		S3: blob.S3Config{
			Region:    c.Blob.S3.Region,
			Bucket:    c.Blob.S3.Bucket,
			Endpoint:  c.Blob.S3.Endpoint,
			PathStyle: c.Blob.S3.PathStyle,
		},
	}
}
