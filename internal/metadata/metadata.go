// Package metadata reads and writes the per-folder bg.json record.
//
// Writes are partial: a patch is merged into the JSON object already on
// disk and every field the patch does not name, known or not, is written
// back untouched.
package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// FileName is the metadata record file inside each background folder.
const FileName = "bg.json"

// Record is the metadata of one background.
type Record struct {
	Public Public `json:"public"`
	Local  Local  `json:"local"`
}

// Public is the shareable part of a record.
type Public struct {
	Name        string   `json:"name"`
	File        string   `json:"file"`
	Icon        string   `json:"icon"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Local is machine-specific state.
type Local struct {
	Tags []string `json:"tags"`
	// Indexed is the unix time the background entered the catalog.
	Indexed int64   `json:"indexed"`
	Profile string  `json:"profile"`
	Volume  float64 `json:"volume"`
}

// Path returns the record path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Exists reports whether dir holds a record file.
func Exists(dir string) bool {
	info, err := os.Stat(Path(dir))
	return err == nil && info.Mode().IsRegular()
}

// Read parses the record in dir. Only a file that is not a JSON object is
// an error. Fields holding an unexpected type are left at their zero value,
// and a fractional local.indexed is truncated to whole seconds.
func Read(dir string) (*Record, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		return nil, err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", Path(dir), err)
	}
	if doc == nil {
		return nil, fmt.Errorf("parse %s: not a JSON object", Path(dir))
	}

	var rec Record
	pub := section(doc["public"])
	rec.Public.Name = stringField(pub["name"])
	rec.Public.File = stringField(pub["file"])
	rec.Public.Icon = stringField(pub["icon"])
	rec.Public.Description = stringField(pub["description"])
	rec.Public.Tags = stringsField(pub["tags"])

	local := section(doc["local"])
	rec.Local.Tags = stringsField(local["tags"])
	rec.Local.Profile = stringField(local["profile"])
	if f, ok := numberField(local["indexed"]); ok && f > math.MinInt64 && f < math.MaxInt64 {
		rec.Local.Indexed = int64(math.Trunc(f))
	}
	if f, ok := numberField(local["volume"]); ok {
		rec.Local.Volume = f
	}
	return &rec, nil
}

func section(raw json.RawMessage) map[string]json.RawMessage {
	var m map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &m) != nil {
		return nil
	}
	return m
}

func stringField(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// stringsField keeps the string elements of a JSON array.
func stringsField(raw json.RawMessage) []string {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
		}
	}
	return out
}

// numberField accepts a JSON number or a string holding one.
func numberField(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return f, !math.IsInf(f, 0)
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Tags returns the public and local tags, lower-cased and deduplicated,
// in first-seen order.
func (r *Record) Tags() []string {
	seen := make(map[string]struct{}, len(r.Public.Tags)+len(r.Local.Tags))
	var out []string
	for _, list := range [][]string{r.Public.Tags, r.Local.Tags} {
		for _, tag := range list {
			t := strings.ToLower(strings.TrimSpace(tag))
			if t == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// ValidTimestamp reports whether ts is usable as an indexed time: positive
// and not in the future.
func ValidTimestamp(ts int64, now time.Time) bool {
	return ts > 0 && ts <= now.Unix()
}

// SetIndexed writes local.indexed in dir, keeping everything else.
func SetIndexed(dir string, ts int64) error {
	return Update(dir, map[string]any{
		"local": map[string]any{"indexed": ts},
	})
}

// Update deep-merges patch into the record in dir and writes it atomically.
// A missing record is created. A record that exists but is not a JSON
// object is left alone and reported.
func Update(dir string, patch map[string]any) error {
	path := Path(dir)

	doc := map[string]any{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	case os.IsNotExist(err):
	default:
		return err
	}

	merge(doc, patch)

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	out = append(out, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// merge copies src into dst, recursing where both sides hold objects.
func merge(dst, src map[string]any) {
	for k, v := range src {
		sub, ok := v.(map[string]any)
		if !ok {
			dst[k] = v
			continue
		}
		existing, ok := dst[k].(map[string]any)
		if !ok {
			existing = map[string]any{}
			dst[k] = existing
		}
		merge(existing, sub)
	}
}
