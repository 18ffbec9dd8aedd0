// Package config loads the controller mapping file.
//
// The file maps device -> channel -> control number -> uniform name:
//
//	raw_values = false
//
//	[midi.1.1]
//	7 = "u_fader"
//
// TOML, YAML and JSON are accepted, chosen by file extension.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v3"
)

const (
	MaxChannel = 16
	MaxControl = 127
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config is the decoded mapping file. Keys stay textual until Mappings
// validates them so every format decodes through the same shape.
type Config struct {
	MIDI      map[string]map[string]map[string]string `toml:"midi" yaml:"midi" json:"midi"`
	RawValues bool                                    `toml:"raw_values" yaml:"raw_values" json:"raw_values"`
}

// Mapping binds one controller input to a shader uniform.
type Mapping struct {
	Device  uint8
	Channel uint8
	Control uint8
	Uniform string

	// raw key text, only used to order duplicates
	keys [3]string
}

// Default returns an empty configuration with no mappings.
func Default() *Config {
	return &Config{}
}

// Load reads and decodes the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields().Decode(cfg)
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(cfg)
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	if _, err := cfg.Mappings(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Mappings flattens the nested mapping into a list in canonical order:
// ascending device, channel and control, then raw key text. When two
// entries name the same controller (e.g. "7" and "07") the later one in
// this order wins.
func (c *Config) Mappings() ([]Mapping, error) {
	var out []Mapping
	for dk, channels := range c.MIDI {
		device, err := parseKey("device", dk, 0, 255)
		if err != nil {
			return nil, err
		}
		for ck, controls := range channels {
			channel, err := parseKey("channel", ck, 1, MaxChannel)
			if err != nil {
				return nil, fmt.Errorf("device %s: %w", dk, err)
			}
			for nk, uniform := range controls {
				control, err := parseKey("control", nk, 0, MaxControl)
				if err != nil {
					return nil, fmt.Errorf("device %s channel %s: %w", dk, ck, err)
				}
				if !identifier.MatchString(uniform) {
					return nil, fmt.Errorf("device %s channel %s control %s: %q is not a uniform name", dk, ck, nk, uniform)
				}
				out = append(out, Mapping{
					Device:  device,
					Channel: channel,
					Control: control,
					Uniform: uniform,
					keys:    [3]string{dk, ck, nk},
				})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Device != b.Device {
			return a.Device < b.Device
		}
		if a.Channel != b.Channel {
			return a.Channel < b.Channel
		}
		if a.Control != b.Control {
			return a.Control < b.Control
		}
		for k := range a.keys {
			if a.keys[k] != b.keys[k] {
				return a.keys[k] < b.keys[k]
			}
		}
		return false
	})
	return out, nil
}

// Devices returns the distinct configured device ids in ascending order.
func (c *Config) Devices() ([]uint8, error) {
	mappings, err := c.Mappings()
	if err != nil {
		return nil, err
	}
	var ids []uint8
	for _, m := range mappings {
		if len(ids) == 0 || ids[len(ids)-1] != m.Device {
			ids = append(ids, m.Device)
		}
	}
	return ids, nil
}

func parseKey(what, s string, lo, hi uint64) (uint8, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s %d out of range %d-%d", what, v, lo, hi)
	}
	return uint8(v), nil
}
