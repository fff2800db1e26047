package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the runtime configuration for the privascope server.
type Config struct {
	ListenAddr        string   `mapstructure:"listen_addr"`
	DatabasePath      string   `mapstructure:"database_path"`
	OwnerID           string   `mapstructure:"owner_id"`
	LogLevel          string   `mapstructure:"log_level"`
	LogFile           string   `mapstructure:"log_file"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
	MaxDepth          int      `mapstructure:"max_depth"`
	MaxFileSizeBytes  int64    `mapstructure:"max_file_size_bytes"`
	MaxDocSizeBytes   int64    `mapstructure:"max_doc_size_bytes"`
}

// DefaultAllowedExtensions covers common text, code and markup formats plus
// the document formats the extractor understands.
var DefaultAllowedExtensions = []string{
	".txt", ".md", ".markdown", ".rst", ".csv", ".json", ".yaml", ".yml",
	".xml", ".html", ".htm", ".css", ".js", ".ts", ".go", ".py", ".rb",
	".java", ".c", ".h", ".cpp", ".sh", ".sql", ".toml", ".ini", ".log",
	".pdf", ".docx", ".odt",
}

// Load reads configuration from the given file path, falling back to
// privascope.yaml in the working directory and then to defaults.
// Environment variables prefixed with PRIVASCOPE_ override file values.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PRIVASCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("privascope")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			// Missing config file means defaults apply; anything else is fatal.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.AllowedExtensions = NormalizeExtensions(cfg.AllowedExtensions)
	return &cfg, nil
}

// NormalizeExtensions lowercases extensions and ensures a leading dot,
// dropping empty entries.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8089")
	v.SetDefault("database_path", "privascope.db")
	v.SetDefault("owner_id", "local")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("allowed_extensions", DefaultAllowedExtensions)
	v.SetDefault("max_depth", 20)
	v.SetDefault("max_file_size_bytes", int64(5*1024*1024))
	v.SetDefault("max_doc_size_bytes", int64(20*1024*1024))
}
