package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	UI       UIConfig       `mapstructure:"ui"`
	Tabs     TabsConfig     `mapstructure:"tabs"`
}

// DatabaseConfig holds sqlite settings. The fixture database lives in memory
// unless a path is given.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	MarkdownStyle   string `mapstructure:"markdown_style"`
	CollapsedWidth  int    `mapstructure:"collapsed_width"`
	ExpandedPercent int    `mapstructure:"expanded_percent"`
	StartPage       string `mapstructure:"start_page"`
	ScrollFPS       int    `mapstructure:"scroll_fps"`
}

// TabsConfig tunes the artifact tabs.
type TabsConfig struct {
	Debounce      time.Duration `mapstructure:"debounce"`
	PublishPolicy string        `mapstructure:"publish_policy"`
}

// Path returns the config file location. RISKDESK_CONFIG wins.
func Path() string {
	if p := os.Getenv("RISKDESK_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "riskdesk", "config.toml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", ":memory:")
	v.SetDefault("log.path", filepath.Join(os.Getenv("HOME"), ".local", "state", "riskdesk", "riskdesk.log"))
	v.SetDefault("log.level", "info")
	v.SetDefault("ui.markdown_style", "auto")
	v.SetDefault("ui.collapsed_width", 3)
	v.SetDefault("ui.expanded_percent", 50)
	v.SetDefault("ui.start_page", "rules")
	v.SetDefault("ui.scroll_fps", 60)
	v.SetDefault("tabs.debounce", "100ms")
	v.SetDefault("tabs.publish_policy", "route-blank")
}

// Load reads configuration from file and env. Env var overrides use prefix RISKDESK_.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	v.SetConfigFile(Path())

	v.SetEnvPrefix("RISKDESK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// a missing file is fine; a broken one is not
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes cfg to the config path, creating the directory if needed.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("log.path", cfg.Log.Path)
	v.Set("log.level", cfg.Log.Level)
	v.Set("ui.markdown_style", cfg.UI.MarkdownStyle)
	v.Set("ui.collapsed_width", cfg.UI.CollapsedWidth)
	v.Set("ui.expanded_percent", cfg.UI.ExpandedPercent)
	v.Set("ui.start_page", cfg.UI.StartPage)
	v.Set("ui.scroll_fps", cfg.UI.ScrollFPS)
	v.Set("tabs.debounce", cfg.Tabs.Debounce.String())
	v.Set("tabs.publish_policy", cfg.Tabs.PublishPolicy)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
