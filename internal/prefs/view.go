// Package prefs persists the people screen's view between runs.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jask/admindesk/internal/people"
	"github.com/jask/admindesk/internal/query"
)

const viewFile = "view.json"

// View is the part of the people screen that survives restarts.
type View struct {
	Search   string          `json:"search,omitempty"`
	Statuses []people.Status `json:"statuses,omitempty"`
	Sort     query.Sort      `json:"sort"`
}

// Query returns the list options v restores.
func (v View) Query() query.Options {
	return query.Options{
		Search:  v.Search,
		Filters: people.StatusFilter(v.Statuses...),
		Sort:    v.Sort,
	}
}

// DefaultPath is view.json under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "admindesk", viewFile), nil
}

// SaveView writes v to path, replacing any previous file atomically.
func SaveView(path string, v View) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadView reads a saved view. A missing file yields the zero View.
func LoadView(path string) (View, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return View{}, nil
		}
		return View{}, err
	}
	var v View
	if err := json.Unmarshal(data, &v); err != nil {
		return View{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}
