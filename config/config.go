// Package config reads skparse.toml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xStarless-Skyx/skparse/sio"

	"github.com/BurntSushi/toml"
)

// Filename is the configuration file name that FindAndLoad looks for.
const Filename = "skparse.toml"

type Config struct {
	// LogLevel is a zap level name.
	LogLevel string `toml:"log_level"`

	Parser  ParserConfig  `toml:"parser"`
	Modules ModulesConfig `toml:"modules"`
	Storage StorageConfig `toml:"storage"`
	Serve   ServeConfig   `toml:"serve"`
	MQTT    sio.MQTTConf  `toml:"mqtt"`
}

type ParserConfig struct {
	// MaxDepth caps resolution nesting.
	MaxDepth int `toml:"max_depth"`

	// MaxFrames caps the backtracking frames of one match.
	MaxFrames int `toml:"max_frames"`
}

type ModulesConfig struct {
	// Dir holds *.sk.yaml manifests.  Empty means no modules.
	Dir string `toml:"dir"`

	// Watch reloads manifests as they change.
	Watch bool `toml:"watch"`

	// Timeout caps each script execution.
	Timeout Duration `toml:"timeout"`
}

type StorageConfig struct {
	// Driver is "mem" or "bolt".
	Driver string `toml:"driver"`

	// Path is the bolt database file.
	Path string `toml:"path"`
}

type ServeConfig struct {
	Listen string `toml:"listen"`

	// Path is the WebSocket endpoint.
	Path string `toml:"path"`

	// Timeout caps each evaluation.
	Timeout Duration `toml:"timeout"`
}

// Duration is a time.Duration written as a string like "1s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(bs []byte) error {
	x, err := time.ParseDuration(string(bs))
	if err != nil {
		return err
	}
	d.Duration = x
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DefaultConfig returns the configuration used when there's no file.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Parser: ParserConfig{
			MaxDepth:  64,
			MaxFrames: 1 << 16,
		},
		Modules: ModulesConfig{
			Timeout: Duration{time.Second},
		},
		Storage: StorageConfig{
			Driver: "mem",
			Path:   "skparse.db",
		},
		Serve: ServeConfig{
			Listen:  "localhost:8080",
			Path:    "/ws",
			Timeout: Duration{5 * time.Second},
		},
		MQTT: sio.MQTTConf{
			Broker:       "tcp://localhost:1883",
			ClientID:     "skparse",
			KeepAlive:    10 * time.Minute,
			Clean:        true,
			RequestTopic: "skparse/requests",
			ReplyTopic:   "skparse/replies",
			Quiesce:      100,
		},
	}
}

// FindAndLoad looks for skparse.toml in startDir and its parents.
// Without one, the defaults are returned along with an empty path.
func FindAndLoad(startDir string) (*Config, string, error) {
	filename := FindConfigFile(startDir)
	if filename == "" {
		return DefaultConfig(), "", nil
	}
	c, err := Load(filename)
	if err != nil {
		return nil, "", err
	}
	return c, filename, nil
}

// FindConfigFile looks for skparse.toml in dir and its parents.
func FindConfigFile(dir string) string {
	for {
		filename := filepath.Join(dir, Filename)
		if _, err := os.Stat(filename); err == nil {
			return filename
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Load reads a configuration file.  What the file doesn't say keeps
// its default.
func Load(filename string) (*Config, error) {
	c := DefaultConfig()
	md, err := toml.DecodeFile(filename, c)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); 0 < len(undecoded) {
		return nil, fmt.Errorf("%s: unknown keys %v", filename, undecoded)
	}
	if err = c.Check(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return c, nil
}

// Check looks for values that can't work.
func (c *Config) Check() error {
	switch c.Storage.Driver {
	case "mem", "bolt":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "bolt" && c.Storage.Path == "" {
		return fmt.Errorf("bolt storage needs a path")
	}
	if c.Parser.MaxDepth < 0 || c.Parser.MaxFrames < 0 {
		return fmt.Errorf("negative parser limit")
	}
	return nil
}
