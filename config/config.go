// Package config handles loading the compositor configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the complete compositor configuration.
type Config struct {
	Cursor   CursorConfig   `mapstructure:"cursor"`
	Window   WindowConfig   `mapstructure:"window"`
	Keyboard KeyboardConfig `mapstructure:"keyboard"`
	Touchpad TouchpadConfig `mapstructure:"touchpad"`
	Outputs  []OutputConfig `mapstructure:"outputs"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type CursorConfig struct {
	Theme        string `mapstructure:"theme"`
	Size         int    `mapstructure:"size"`
	DefaultImage string `mapstructure:"default_image"`
	MoveImage    string `mapstructure:"move_image"`
}

// WindowConfig constrains interactive window geometry.
type WindowConfig struct {
	MinWidth  int `mapstructure:"min_width"`
	MinHeight int `mapstructure:"min_height"`
}

// KeyboardConfig holds the XKB rule names used to build keymaps and
// the key repeat settings. Unset rule names fall back to the
// XKB_DEFAULT_* environment variables.
type KeyboardConfig struct {
	Rules       string `mapstructure:"rules"`
	Model       string `mapstructure:"model"`
	Layout      string `mapstructure:"layout"`
	Variant     string `mapstructure:"variant"`
	Options     string `mapstructure:"options"`
	RepeatRate  int    `mapstructure:"repeat_rate"`
	RepeatDelay int    `mapstructure:"repeat_delay"`
}

type TouchpadConfig struct {
	TapToClick    bool    `mapstructure:"tap_to_click"`
	NaturalScroll bool    `mapstructure:"natural_scroll"`
	AccelSpeed    float64 `mapstructure:"accel_speed"`
}

// OutputConfig positions and sizes a named output. An X and Y of -1
// place the output automatically. A zero Width or Height uses the
// output's preferred mode.
type OutputConfig struct {
	Name   string  `mapstructure:"name"`
	X      int     `mapstructure:"x"`
	Y      int     `mapstructure:"y"`
	Width  int     `mapstructure:"width"`
	Height int     `mapstructure:"height"`
	Scale  float64 `mapstructure:"scale"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Default is the configuration used when no file is found.
var Default = Config{
	Cursor: CursorConfig{
		Size:         24,
		DefaultImage: "left_ptr",
		MoveImage:    "grabbing",
	},
	Window: WindowConfig{
		MinWidth:  128,
		MinHeight: 24,
	},
	Keyboard: KeyboardConfig{
		RepeatRate:  25,
		RepeatDelay: 600,
	},
	Touchpad: TouchpadConfig{
		TapToClick:    true,
		NaturalScroll: true,
		AccelSpeed:    0.3,
	},
	Logging: LoggingConfig{
		Level: "info",
	},
}

// Output returns the configuration for the named output, if there is
// one.
func (c *Config) Output(name string) (OutputConfig, bool) {
	for _, out := range c.Outputs {
		if out.Name == name {
			return out, true
		}
	}
	return OutputConfig{}, false
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("cursor.theme", Default.Cursor.Theme)
	v.SetDefault("cursor.size", Default.Cursor.Size)
	v.SetDefault("cursor.default_image", Default.Cursor.DefaultImage)
	v.SetDefault("cursor.move_image", Default.Cursor.MoveImage)

	v.SetDefault("window.min_width", Default.Window.MinWidth)
	v.SetDefault("window.min_height", Default.Window.MinHeight)

	v.SetDefault("keyboard.repeat_rate", Default.Keyboard.RepeatRate)
	v.SetDefault("keyboard.repeat_delay", Default.Keyboard.RepeatDelay)

	v.SetDefault("touchpad.tap_to_click", Default.Touchpad.TapToClick)
	v.SetDefault("touchpad.natural_scroll", Default.Touchpad.NaturalScroll)
	v.SetDefault("touchpad.accel_speed", Default.Touchpad.AccelSpeed)

	v.SetDefault("outputs", Default.Outputs)

	v.SetDefault("logging.level", Default.Logging.Level)
}

func bindEnv(v *viper.Viper) error {
	binds := []struct{ key, env string }{
		{"keyboard.rules", "XKB_DEFAULT_RULES"},
		{"keyboard.model", "XKB_DEFAULT_MODEL"},
		{"keyboard.layout", "XKB_DEFAULT_LAYOUT"},
		{"keyboard.variant", "XKB_DEFAULT_VARIANT"},
		{"keyboard.options", "XKB_DEFAULT_OPTIONS"},
		{"cursor.theme", "XCURSOR_THEME"},
		{"cursor.size", "XCURSOR_SIZE"},
		{"logging.level", "SYCAMORE_LOG_LEVEL"},
	}
	for _, b := range binds {
		err := v.BindEnv(b.key, b.env)
		if err != nil {
			return fmt.Errorf("bind %v to %v: %w", b.env, b.key, err)
		}
	}
	return nil
}

func searchPaths() (paths []string) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		paths = append(paths, filepath.Join(dir, "sycamore"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "sycamore"))
	}
	return append(paths, "/etc/sycamore")
}

// Load reads the configuration. If path is empty, sycamore.toml is
// searched for in the usual configuration directories and a missing
// file is not an error. If path is not empty, it must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sycamore")
		for _, p := range searchPaths() {
			v.AddConfigPath(p)
		}
	}

	setDefaults(v)
	err := bindEnv(v)
	if err != nil {
		return nil, err
	}

	err = v.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if (path != "") || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	err = v.Unmarshal(&c)
	if err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.fix()

	return &c, nil
}

func (c *Config) fix() {
	if c.Window.MinWidth < 1 {
		c.Window.MinWidth = 1
	}
	if c.Window.MinHeight < 1 {
		c.Window.MinHeight = 1
	}
	if c.Cursor.DefaultImage == "" {
		c.Cursor.DefaultImage = Default.Cursor.DefaultImage
	}
	for i := range c.Outputs {
		if c.Outputs[i].Scale <= 0 {
			c.Outputs[i].Scale = 1
		}
	}
}
