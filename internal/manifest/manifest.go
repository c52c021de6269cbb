// Package manifest edits package.json documents without disturbing key order
// or fields it does not understand.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/EmundoT/pkgguard/internal/types"
)

// FileName is the npm manifest file name.
const FileName = "package.json"

// maxManifestSize rejects absurd inputs before they are buffered.
const maxManifestSize = 10 << 20

// Descriptor keys touched by the script policy.
const (
	KeyName                 = "name"
	KeyVersion              = "version"
	KeyScripts              = "scripts"
	KeyDependencies         = "dependencies"
	KeyOptionalDependencies = "optionalDependencies"
	KeyPeerDependencies     = "peerDependencies"
	KeyBundleDependencies   = "bundleDependencies"
	KeyBundledDependencies  = "bundledDependencies" // alias npm also accepts
	KeyPackageManager       = "packageManager"
)

// ErrNotObject is returned when a document or a descriptor field is not a JSON object.
var ErrNotObject = errors.New("not a JSON object")

// ErrInvalidJSON is returned by Parse for malformed input.
var ErrInvalidJSON = errors.New("invalid JSON")

// npmFormat matches the layout npm writes: two-space indent, arrays one item per line.
var npmFormat = &pretty.Options{Indent: "  "}

// Document is a package.json held as raw bytes. Edits go through sjson, so
// keys keep their position and untouched values keep their bytes.
type Document struct {
	data []byte
}

// New returns an empty document.
func New() *Document {
	return &Document{data: []byte("{}")}
}

// Parse validates data as a single JSON object.
func Parse(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse manifest: %w", ErrInvalidJSON)
	}
	if !gjson.ParseBytes(data).IsObject() {
		return nil, fmt.Errorf("parse manifest: %w", ErrNotObject)
	}
	return &Document{data: bytes.Clone(data)}, nil
}

// Load reads and parses a package.json file.
func Load(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > maxManifestSize {
		return nil, fmt.Errorf("%s exceeds maximum size (%d bytes > %d byte limit)", path, info.Size(), maxManifestSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Save writes the document in npm layout.
func (d *Document) Save(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Keys returns the top-level keys in document order.
func (d *Document) Keys() []string {
	var keys []string
	gjson.ParseBytes(d.data).ForEach(func(key, _ gjson.Result) bool {
		if k := key.String(); !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
		return true
	})
	return keys
}

// Has reports whether key is present.
func (d *Document) Has(key string) bool {
	return d.get(key).Exists()
}

// Get returns the raw value of key as it appears in the document.
func (d *Document) Get(key string) (json.RawMessage, bool) {
	r := d.get(key)
	if !r.Exists() {
		return nil, false
	}
	return json.RawMessage(r.Raw), true
}

// GetString returns key as a string; ok is false when absent or not a string.
func (d *Document) GetString(key string) (string, bool) {
	r := d.get(key)
	if r.Type != gjson.String {
		return "", false
	}
	return r.Str, true
}

// Set encodes value and stores it under key. Existing keys keep their position;
// new keys are appended.
func (d *Document) Set(key string, value any) error {
	raw, err := encode(value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return d.setRaw(escapeKey(key), raw)
}

// Delete removes key. A missing key is not an error.
func (d *Document) Delete(key string) error {
	if !d.Has(key) {
		return nil
	}
	out, err := sjson.DeleteBytes(d.data, escapeKey(key))
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	d.data = out
	return nil
}

// MarshalJSON encodes the document compactly in key order.
func (d *Document) MarshalJSON() ([]byte, error) {
	return pretty.Ugly(d.data), nil
}

// Marshal encodes the document the way npm writes package.json.
func (d *Document) Marshal() ([]byte, error) {
	out := pretty.PrettyOptions(d.data, npmFormat)
	return append(bytes.TrimRight(out, "\n"), '\n'), nil
}

// Descriptor extracts the fields the script policy acts on.
func (d *Document) Descriptor() (types.PackageDescriptor, error) {
	var pkg types.PackageDescriptor
	for key, dst := range map[string]*string{KeyName: &pkg.Name, KeyVersion: &pkg.Version} {
		r := d.get(key)
		switch r.Type {
		case gjson.String:
			*dst = r.Str
		case gjson.Null:
		default:
			return pkg, fmt.Errorf("field %q: not a string", key)
		}
	}
	for key, dst := range map[string]*map[string]string{
		KeyScripts:              &pkg.Scripts,
		KeyDependencies:         &pkg.Dependencies,
		KeyOptionalDependencies: &pkg.OptionalDependencies,
		KeyPeerDependencies:     &pkg.PeerDependencies,
	} {
		m, err := d.stringMap(key)
		if err != nil {
			return pkg, err
		}
		*dst = m
	}
	bundled, err := d.bundleList(d.bundleKey(), pkg.Dependencies)
	if err != nil {
		return pkg, err
	}
	pkg.BundleDependencies = bundled
	return pkg, nil
}

// ApplyDescriptor writes the descriptor's maps back into the document.
// A map is written when its key already exists or the map is non-empty, so a
// blocked package ends up with empty objects. Entries inside an existing object
// keep their order.
func (d *Document) ApplyDescriptor(pkg types.PackageDescriptor) error {
	deps, err := d.stringMap(KeyDependencies)
	if err != nil {
		return err
	}
	bundleKey := d.bundleKey()
	bundled, err := d.bundleList(bundleKey, deps)
	if err != nil {
		return err
	}

	for _, f := range []struct {
		key string
		m   map[string]string
	}{
		{KeyScripts, pkg.Scripts},
		{KeyDependencies, pkg.Dependencies},
		{KeyOptionalDependencies, pkg.OptionalDependencies},
		{KeyPeerDependencies, pkg.PeerDependencies},
	} {
		if !d.Has(f.key) && len(f.m) == 0 {
			continue
		}
		if err := d.mergeStringMap(f.key, f.m); err != nil {
			return err
		}
	}

	if (d.Has(bundleKey) || len(pkg.BundleDependencies) > 0) && !slices.Equal(bundled, pkg.BundleDependencies) {
		list := pkg.BundleDependencies
		if list == nil {
			list = []string{}
		}
		return d.Set(bundleKey, list)
	}
	return nil
}

func (d *Document) get(key string) gjson.Result {
	return gjson.GetBytes(d.data, escapeKey(key))
}

func (d *Document) setRaw(path string, raw []byte) error {
	out, err := sjson.SetRawBytes(d.data, path, raw)
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	d.data = out
	return nil
}

func (d *Document) stringMap(key string) (map[string]string, error) {
	r := d.get(key)
	if !r.Exists() || r.Type == gjson.Null {
		return nil, nil
	}
	if !r.IsObject() {
		return nil, fmt.Errorf("field %q: %w", key, ErrNotObject)
	}
	m := make(map[string]string)
	var bad error
	r.ForEach(func(k, v gjson.Result) bool {
		if v.Type != gjson.String {
			bad = fmt.Errorf("field %q: value of %q is not a string", key, k.String())
			return false
		}
		m[k.String()] = v.Str
		return true
	})
	return m, bad
}

// bundleKey names the bundle list field the document uses.
func (d *Document) bundleKey() string {
	if !d.Has(KeyBundleDependencies) && d.Has(KeyBundledDependencies) {
		return KeyBundledDependencies
	}
	return KeyBundleDependencies
}

// bundleList reads a bundle field. true bundles every dependency.
func (d *Document) bundleList(key string, deps map[string]string) ([]string, error) {
	r := d.get(key)
	switch {
	case !r.Exists(), r.Type == gjson.Null, r.Type == gjson.False:
		return nil, nil
	case r.Type == gjson.True:
		if len(deps) == 0 {
			return nil, nil
		}
		return slices.Sorted(maps.Keys(deps)), nil
	case !r.IsArray():
		return nil, fmt.Errorf("field %q: not an array", key)
	}
	var list []string
	for _, item := range r.Array() {
		if item.Type != gjson.String {
			return nil, fmt.Errorf("field %q: entry %s is not a string", key, item.Raw)
		}
		list = append(list, item.Str)
	}
	return list, nil
}

// mergeStringMap rewrites the object under key to hold exactly m, keeping the
// position of surviving entries.
func (d *Document) mergeStringMap(key string, m map[string]string) error {
	base := escapeKey(key)
	current := d.get(key)
	if !current.IsObject() {
		if err := d.setRaw(base, []byte("{}")); err != nil {
			return err
		}
		current = gjson.Result{}
	}

	var stale []string
	current.ForEach(func(k, _ gjson.Result) bool {
		if _, keep := m[k.String()]; !keep {
			stale = append(stale, k.String())
		}
		return true
	})
	for _, k := range stale {
		out, err := sjson.DeleteBytes(d.data, base+"."+escapeKey(k))
		if err != nil {
			return fmt.Errorf("field %q: delete %q: %w", key, k, err)
		}
		d.data = out
	}

	for _, k := range slices.Sorted(maps.Keys(m)) {
		if v := current.Get(escapeKey(k)); v.Type == gjson.String && v.Str == m[k] {
			continue
		}
		raw, err := encode(m[k])
		if err != nil {
			return err
		}
		if err := d.setRaw(base+"."+escapeKey(k), raw); err != nil {
			return err
		}
	}
	return nil
}

// escapeKey turns one object key into a gjson/sjson path component. Package
// names carry '@', '/' and '.', which are path syntax.
func escapeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		if r < 0x80 && !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
