package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const (
	defaultPort              = "8080"
	defaultJWTSecret         = "change-me-jwt-secret"
	defaultTokenTTL          = 24 * time.Hour
	defaultStorageDir        = "./storage"
	defaultDataDir           = "./data"
	defaultStorageAllocation = "all"

	// ChunkSize is the chunk size advertised to clients at upload init (5 MiB).
	ChunkSize = 5 * 1024 * 1024
)

// DefaultAdmin credentials seeded on first start.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
	DefaultAdminEmail    = "admin@localhost"
)

type Config struct {
	Port      string
	JWTSecret string
	TokenTTL  time.Duration

	// DatabaseURL selects the metadata store: a postgres:// DSN or a
	// sqlite file path. Empty means a sqlite file under DataDir.
	DatabaseURL string

	// StorageDir is the root for files/, thumbnails/ and chunks/.
	StorageDir string
	DataDir    string

	// StorageAllocation caps reported quota: "all", "10GB", "500MB",
	// or a plain byte count.
	StorageAllocation string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", defaultPort),
		JWTSecret:         getEnv("JWT_SECRET", defaultJWTSecret),
		TokenTTL:          defaultTokenTTL,
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		StorageDir:        getEnv("STORAGE_DIR", defaultStorageDir),
		DataDir:           getEnv("DATA_DIR", defaultDataDir),
		StorageAllocation: getEnv("STORAGE_ALLOCATION", defaultStorageAllocation),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = filepath.Join(cfg.DataDir, "clouddrive.db")
	}

	if ttl := strings.TrimSpace(os.Getenv("TOKEN_TTL")); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_TTL %q: %w", ttl, err)
		}
		cfg.TokenTTL = d
	}

	return cfg, nil
}

func (c *Config) FilesDir() string      { return filepath.Join(c.StorageDir, "files") }
func (c *Config) ThumbnailsDir() string { return filepath.Join(c.StorageDir, "thumbnails") }
func (c *Config) ChunksDir() string     { return filepath.Join(c.StorageDir, "chunks") }

// EnsureDirs creates the data and storage directory tree.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.FilesDir(), c.ThumbnailsDir(), c.ChunksDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	return nil
}

// StorageQuota resolves the configured allocation to bytes. "all" means the
// total size of the disk holding StorageDir.
func (c *Config) StorageQuota() (int64, error) {
	alloc := strings.ToUpper(strings.TrimSpace(c.StorageAllocation))
	if alloc == "" || alloc == "ALL" {
		du, err := DiskUsage(c.StorageDir)
		if err != nil {
			return 0, err
		}
		return du.Total, nil
	}
	return ParseAllocation(alloc)
}

// ParseAllocation parses "10GB", "500MB", "1TB", "2048KB", "123B" or a plain
// byte count into bytes. Suffix match is longest-first so "B" does not
// swallow "GB".
func ParseAllocation(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	suffixes := []struct {
		unit string
		mult int64
	}{
		{"TB", 1 << 40},
		{"GB", 1 << 30},
		{"MB", 1 << 20},
		{"KB", 1 << 10},
		{"B", 1},
	}
	for _, sf := range suffixes {
		if strings.HasSuffix(s, sf.unit) {
			num := strings.TrimSpace(strings.TrimSuffix(s, sf.unit))
			f, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid storage allocation %q", s)
			}
			return int64(f * float64(sf.mult)), nil
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid storage allocation %q", s)
	}
	return n, nil
}

// DiskStats reports real filesystem usage for the storage volume.
type DiskStats struct {
	Total int64 `json:"total"`
	Used  int64 `json:"used"`
	Free  int64 `json:"free"`
}

func DiskUsage(path string) (*DiskStats, error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return nil, fmt.Errorf("statfs %s: %w", path, err)
	}
	total := int64(st.Blocks) * int64(st.Bsize)
	free := int64(st.Bavail) * int64(st.Bsize)
	return &DiskStats{Total: total, Used: total - free, Free: free}, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
