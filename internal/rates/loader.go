package rates

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	hjson "github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v2"
)

// LoadFile reads an override file on top of the built-in tables. The format follows the
// extension: .yaml/.yml, .hjson or .json. Map entries (deed types, relations,
// territories) replace the built-in entry of the same key as a whole.
func LoadFile(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rate tables: %w", err)
	}

	t, err := Load(data, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Info("rate tables loaded", "path", path, "version", t.Version,
		"territories", len(t.Territories), "deed_types", len(t.DeedTypes))
	return t, nil
}

// Load decodes data in the given format over Default() and validates the result.
func Load(data []byte, format string) (*Tables, error) {
	t := Default()

	var err error
	switch format {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, t)
	case "hjson":
		err = hjson.Unmarshal(data, t)
	case "json":
		err = json.Unmarshal(data, t)
	default:
		return nil, fmt.Errorf("unsupported rate table format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s rate tables: %w", format, err)
	}

	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rate tables: %w", err)
	}
	return t, nil
}
