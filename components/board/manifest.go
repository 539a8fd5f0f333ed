package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// BoardManifest models a YAML manifest describing the widgets a board starts
// with.
type BoardManifest struct {
	Version string           `json:"version" yaml:"version"`
	Name    string           `json:"name,omitempty" yaml:"name,omitempty"`
	Index   string           `json:"index,omitempty" yaml:"index,omitempty"`
	Widgets []ManifestWidget `json:"widgets" yaml:"widgets"`
	Source  string           `json:"-" yaml:"-"`
}

// ManifestWidget describes a single widget entry within a manifest. Index
// falls back to the manifest-level default when omitted.
type ManifestWidget struct {
	Title     string         `json:"title" yaml:"title"`
	Type      WidgetType     `json:"type" yaml:"type"`
	Index     string         `json:"index,omitempty" yaml:"index,omitempty"`
	Query     map[string]any `json:"query,omitempty" yaml:"query,omitempty"`
	TimeRange *TimeRange     `json:"time_range,omitempty" yaml:"time_range,omitempty"`
}

// ReadManifest loads a manifest file from disk.
func ReadManifest(path string) (*BoardManifest, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("board: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("board: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader.
func DecodeManifest(r io.Reader) (*BoardManifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc BoardManifest
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("board: manifest is empty")
		}
		return nil, fmt.Errorf("board: parse manifest: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate ensures the manifest satisfies required fields.
func (doc *BoardManifest) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("board: unsupported manifest version %q", doc.Version)
	}
	for idx, widget := range doc.Widgets {
		if widget.Title == "" {
			return fmt.Errorf("board: manifest widget at index %d is missing title", idx)
		}
		if !widget.Type.Valid() {
			return fmt.Errorf("board: manifest widget %s has unknown type %q", widget.Title, widget.Type)
		}
		if widget.Index == "" && doc.Index == "" {
			return fmt.Errorf("board: manifest widget %s has no index and the manifest sets no default", widget.Title)
		}
		if widget.TimeRange != nil {
			if err := widget.TimeRange.Validate(); err != nil {
				return fmt.Errorf("board: manifest widget %s: %w", widget.Title, err)
			}
		}
	}
	return nil
}

func (doc *BoardManifest) applyDefaults() {
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
}

// SeedBoard creates every manifest widget through the service. Individual
// failures are joined so one bad entry does not abort the rest.
func SeedBoard(ctx context.Context, service *Service, doc *BoardManifest) error {
	if service == nil {
		return errors.New("board: service is required to seed a board")
	}
	if doc == nil {
		return errors.New("board: manifest document is nil")
	}
	var seedErr error
	for _, widget := range doc.Widgets {
		index := widget.Index
		if index == "" {
			index = doc.Index
		}
		_, err := service.CreateWidget(ctx, CreateWidgetRequest{
			Title:          widget.Title,
			Type:           widget.Type,
			Index:          index,
			Query:          widget.Query,
			FixedTimeRange: widget.TimeRange,
		})
		if err != nil {
			seedErr = errors.Join(seedErr, fmt.Errorf("board: seed widget %s: %w", widget.Title, err))
		}
	}
	return seedErr
}

// WriteManifest persists a manifest document as YAML.
func WriteManifest(path string, doc *BoardManifest) error {
	if doc == nil {
		return errors.New("board: manifest document is nil")
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("board: encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("board: write manifest %s: %w", path, err)
	}
	return nil
}
