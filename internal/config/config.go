package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Content ContentConfig `mapstructure:"content"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Git     GitConfig     `mapstructure:"git"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port       string `mapstructure:"port"`
	CORSOrigin string `mapstructure:"cors_origin"`
}

// ContentConfig describes where content lives and which content types exist.
type ContentConfig struct {
	// Root is the directory holding one subdirectory per content type.
	// It must sit inside the git working tree the publish gateway operates on.
	Root string `mapstructure:"root"`
	// MedialessTypes never get a per-item asset directory.
	MedialessTypes []string `mapstructure:"medialess_types"`
}

// UploadConfig holds limits for media uploads.
type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

// GitConfig holds settings for the publish gateway.
type GitConfig struct {
	// Bin is the version-control binary to invoke.
	Bin string `mapstructure:"bin"`
	// RepoRoot is the working-tree root; subprocesses run with it as cwd.
	RepoRoot string `mapstructure:"repo_root"`
	Remote   string `mapstructure:"remote"`
	Branch   string `mapstructure:"branch"`
	// DefaultCommitMessage is used when a push request carries no message.
	DefaultCommitMessage string `mapstructure:"default_commit_message"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // e.g., "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // e.g., "json", "console"
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("server.port", "3001")
	viper.SetDefault("server.cors_origin", "http://localhost:5173")
	viper.SetDefault("content.root", "public/data")
	viper.SetDefault("content.medialess_types", []string{"featured"})
	viper.SetDefault("upload.max_bytes", int64(100*1024*1024))
	viper.SetDefault("git.bin", "git")
	viper.SetDefault("git.repo_root", ".")
	viper.SetDefault("git.remote", "origin")
	viper.SetDefault("git.branch", "main")
	viper.SetDefault("git.default_commit_message", "Update content via admin panel")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")

	// Set up viper to read from config file
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/oversite-cms/")

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
		// Config file not found; proceed with defaults and env vars
	}

	// Set up viper to read from environment variables
	viper.SetEnvPrefix("CMS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Unmarshal the config into the Config struct
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
