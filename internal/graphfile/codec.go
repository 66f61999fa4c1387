package graphfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	tomlenc "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	apierrors "apidump/internal/errors"
)

// Format is a manifest serialization.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
	TOML Format = "toml"
)

// ParseFormat accepts yaml, yml, json and toml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "yaml", "yml":
		return YAML, nil
	case "json":
		return JSON, nil
	case "toml":
		return TOML, nil
	}
	return "", apierrors.Newf(apierrors.UnsupportedFormat, "unknown manifest format %q", s)
}

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	f, err := ParseFormat(filepath.Ext(path))
	return f, err == nil
}

// Decode reads a manifest. Unknown keys are rejected so that typos do not
// silently drop declarations.
func Decode(r io.Reader, f Format) (*Manifest, error) {
	var m Manifest
	switch f {
	case YAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil && err != io.EOF {
			return nil, apierrors.New(apierrors.InputInvalid, "failed to parse YAML manifest", err)
		}
	case JSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil && err != io.EOF {
			return nil, apierrors.New(apierrors.InputInvalid, "failed to parse JSON manifest", err)
		}
	case TOML:
		md, err := toml.NewDecoder(r).Decode(&m)
		if err != nil {
			return nil, apierrors.New(apierrors.InputInvalid, "failed to parse TOML manifest", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			sort.Strings(keys)
			return nil, apierrors.Newf(apierrors.InputInvalid, "unknown manifest keys: %s", strings.Join(keys, ", "))
		}
	default:
		return nil, apierrors.Newf(apierrors.UnsupportedFormat, "unknown manifest format %q", f)
	}
	if m.Version > CurrentVersion {
		return nil, apierrors.Newf(apierrors.InputInvalid, "manifest version %d is newer than supported version %d", m.Version, CurrentVersion)
	}
	return &m, nil
}

// DecodeFile reads the manifest at path, detecting the format from its
// extension.
func DecodeFile(path string) (*Manifest, error) {
	f, ok := FormatFromPath(path)
	if !ok {
		return nil, apierrors.Newf(apierrors.UnsupportedFormat, "cannot tell manifest format of %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apierrors.New(apierrors.InputNotFound, fmt.Sprintf("manifest %s does not exist", path), err)
		}
		return nil, apierrors.New(apierrors.InputInvalid, fmt.Sprintf("failed to read %s", path), err)
	}
	m, err := Decode(bytes.NewReader(data), f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Encode writes m in the given format.
func Encode(w io.Writer, m *Manifest, f Format) error {
	if m.Version == 0 {
		m.Version = CurrentVersion
	}
	var err error
	switch f {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(m); err == nil {
			err = enc.Close()
		}
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(m)
	case TOML:
		enc := tomlenc.NewEncoder(w)
		enc.SetIndentTables(true)
		err = enc.Encode(m)
	default:
		return apierrors.Newf(apierrors.UnsupportedFormat, "unknown manifest format %q", f)
	}
	if err != nil {
		return apierrors.New(apierrors.InternalError, fmt.Sprintf("failed to encode %s manifest", f), err)
	}
	return nil
}
