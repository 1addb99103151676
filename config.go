package tenmactl

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mdouchement/tenmactl/tenma"
	"go.yaml.in/yaml/v4"
)

type Config struct {
	Debug       bool               `yaml:"debug"`
	Port        string             `yaml:"port"`
	Model       string             `yaml:"model"`
	Capture     string             `yaml:"capture"`
	SettleDelay Duration           `yaml:"settle_delay"`
	Monitor     Monitor            `yaml:"monitor"`
	Memories    map[string]*Memory `yaml:"memories"`
}

type Monitor struct {
	Channel  int      `yaml:"channel"`
	Interval Duration `yaml:"interval"`
}

// A Memory is a preset programmed into a memory slot of the unit.
type Memory struct {
	Slot        int    `yaml:"-"`
	Label       string `yaml:"label"`
	Channel     int    `yaml:"channel"`
	VoltageYAML string `yaml:"voltage"`
	CurrentYAML string `yaml:"current"`
	Millivolts  int    `yaml:"-"`
	Milliamps   int    `yaml:"-"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	c := Config{}
	c.defaults()
	return c
}

func (c *Config) defaults() {
	if c.SettleDelay.Duration == 0 {
		c.SettleDelay.Duration = tenma.SettleDelay
	}
	if c.Monitor.Channel == 0 {
		c.Monitor.Channel = 1
	}
	if c.Monitor.Interval.Duration == 0 {
		c.Monitor.Interval.Duration = 500 * time.Millisecond
	}
	if c.Memories == nil {
		c.Memories = map[string]*Memory{}
	}
}

func Load(path string) (Config, error) {
	var c Config

	f, err := os.Open(path)
	if err != nil {
		return c, err
	}
	defer f.Close()

	codec := yaml.NewDecoder(f)
	err = codec.Decode(&c)
	if err != nil {
		return c, err
	}

	c.defaults()

	//

	if c.SettleDelay.Duration < tenma.SettleDelay {
		return c, fmt.Errorf("settle_delay: must be at least %s", tenma.SettleDelay)
	}
	if c.Monitor.Channel < 0 {
		return c, fmt.Errorf("monitor: invalid channel %d", c.Monitor.Channel)
	}
	if c.Model != "" {
		if _, ok := tenma.Lookup(c.Model); !ok {
			return c, fmt.Errorf("model: unknown model %s", strconv.Quote(c.Model))
		}
	}

	reName := regexp.MustCompile(`^m(\d+)$`)
	var errs []error
	for name, m := range c.Memories {
		if m == nil {
			errs = append(errs, fmt.Errorf("%s: empty memory", name))
			continue
		}

		match := reName.FindStringSubmatch(name)
		if len(match) != 2 {
			errs = append(errs, fmt.Errorf("%s: invalid name", name))
			continue
		}
		slot, err := strconv.Atoi(match[1])
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid number", name)) // Should not happen because of the regex check
			continue
		}
		if slot < 1 || slot > 10 {
			errs = append(errs, fmt.Errorf("%s: invalid number range", name))
			continue
		}

		m.Slot = slot
		if m.Channel == 0 {
			m.Channel = 1
		}
		if m.Label == "" {
			m.Label = name
		}

		m.Millivolts, err = ParseQuantity(m.VoltageYAML, 'V')
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: voltage: %w", name, err))
		}
		m.Milliamps, err = ParseQuantity(m.CurrentYAML, 'A')
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: current: %w", name, err))
		}
	}

	return c, errors.Join(errs...)
}

// SortedMemories returns the memories ordered by slot.
func (c Config) SortedMemories() []*Memory {
	memories := slices.Collect(maps.Values(c.Memories))
	slices.SortFunc(memories, func(a, b *Memory) int {
		return a.Slot - b.Slot
	})
	return memories
}

// Memory returns the preset of the given slot.
func (c Config) Memory(slot int) (*Memory, bool) {
	m, ok := c.Memories["m"+strconv.Itoa(slot)]
	return m, ok
}

var reQuantity = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(m?)([VA])$`)

// ParseQuantity parses "12V", "12.5 V", "500mA" or "1.2A" into milli-units.
func ParseQuantity(s string, unit byte) (int, error) {
	match := reQuantity.FindStringSubmatch(s)
	if len(match) != 4 {
		return 0, fmt.Errorf("invalid format %s", strconv.Quote(s))
	}
	if match[3][0] != unit {
		return 0, fmt.Errorf("%s: expected unit %c", strconv.Quote(s), unit)
	}

	v, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", strconv.Quote(s), err) // Should not happen because of the regex check
	}

	if match[2] == "" {
		v *= 1000
	}
	return int(v + 0.5), nil
}

// ParseMilli parses a plain number of volts or amps ("12.5") or a quantity
// with its unit ("12.5V", "3300mv") into milli-units.
func ParseMilli(s string, unit byte) (int, error) {
	s = strings.TrimSpace(s)
	if n := len(s); n > 0 && strings.ToUpper(s[n-1:]) == string(unit) {
		return ParseQuantity(s[:n-1]+string(unit), unit)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %s", strconv.Quote(s))
	}
	return int(math.Round(v * 1000)), nil
}

// KeyConfigDir overrides the directory of the default configuration file.
const KeyConfigDir = "TENMACTL_CONFIG_DIR"

// ConfigPath is the default configuration file, where the selected port gets persisted.
func ConfigPath() (string, error) {
	if dir := os.Getenv(KeyConfigDir); dir != "" {
		return filepath.Join(dir, "tenmactl.yml"), nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tenmactl", "tenmactl.yml"), nil
}

// SavePort persists the port in the configuration file, keeping its other settings.
func SavePort(path, port string) error {
	doc := map[string]any{}

	p, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err = yaml.Unmarshal(p, &doc); err != nil {
			return err
		}
		if doc == nil {
			doc = map[string]any{}
		}
	case !errors.Is(err, os.ErrNotExist):
		return err
	}

	doc["port"] = port

	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	p, err = yaml.Marshal(doc)
	if err != nil {
		return err
	}

	return os.WriteFile(path, p, 0o600)
}
