package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/ettle/strcase"

	board "github.com/goliatone/go-gridboard/components/board"
	"github.com/goliatone/go-gridboard/pkg/search"
)

type cli struct {
	Validate validateCmd `cmd:"" help:"Validate a board manifest."`
	Add      addCmd      `cmd:"" help:"Add a widget entry to a board manifest."`
	Types    typesCmd    `cmd:"" help:"List the registered widget types and their default queries."`
	Run      runCmd      `cmd:"" help:"Seed a board from a manifest against a search backend and print the snapshot."`
}

func main() {
	ctx := kong.Parse(&cli{},
		kong.Description("Board manifest utility for go-gridboard."),
		kong.UsageOnError(),
	)
	err := ctx.Run(context.Background())
	ctx.FatalIfErrorf(err)
}

type validateCmd struct {
	ManifestPath string `arg:"" type:"path" help:"Path to the board manifest YAML file."`
}

func (cmd *validateCmd) Run(_ context.Context) error {
	doc, err := board.ReadManifest(cmd.ManifestPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ %s is valid (%d widgets)\n", cmd.ManifestPath, len(doc.Widgets))
	return nil
}

type addCmd struct {
	ManifestPath string `required:"" type:"path" help:"Path to the board manifest YAML file to update."`
	Title        string `help:"Display title (derived from type and index when omitted)."`
	Type         string `required:"" help:"Widget type (pie, bar, line, metric, table, area, scatter)."`
	Index        string `help:"Index pattern the widget queries (falls back to the manifest default)."`
	Preset       string `help:"Optional preset time range to pin the widget to (last_15m, last_1h, ...)."`
	QueryPath    string `type:"path" help:"Optional path to a JSON query document (defaults to the type's starter query)."`
	Overwrite    bool   `help:"Replace an existing entry with the same title."`
}

func (cmd *addCmd) Run(_ context.Context) error {
	widgetType := board.WidgetType(cmd.Type)
	if !widgetType.Valid() {
		return fmt.Errorf("boardctl: unknown widget type %q", cmd.Type)
	}
	manifestPath, err := filepath.Abs(cmd.ManifestPath)
	if err != nil {
		return fmt.Errorf("boardctl: resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(manifestPath)
	if err != nil {
		return err
	}

	title := cmd.Title
	if title == "" {
		title = deriveTitle(widgetType, cmd.Index)
	}
	if !cmd.Overwrite {
		for _, widget := range doc.Widgets {
			if widget.Title == title {
				return fmt.Errorf("boardctl: manifest already defines widget %q (use --overwrite to replace)", title)
			}
		}
	}

	query, err := cmd.loadQuery(widgetType)
	if err != nil {
		return err
	}

	entry := board.ManifestWidget{
		Title: title,
		Type:  widgetType,
		Index: cmd.Index,
		Query: query,
	}
	if cmd.Preset != "" {
		tr, err := board.NewPresetRange(cmd.Preset)
		if err != nil {
			return err
		}
		entry.TimeRange = &tr
	}

	replaced := false
	if cmd.Overwrite {
		for idx := range doc.Widgets {
			if doc.Widgets[idx].Title == title {
				doc.Widgets[idx] = entry
				replaced = true
				break
			}
		}
	}
	if !replaced {
		doc.Widgets = append(doc.Widgets, entry)
	}

	if err := doc.Validate(); err != nil {
		return err
	}
	if err := board.WriteManifest(manifestPath, doc); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Added %q to %s\n", title, manifestPath)
	return nil
}

func (cmd *addCmd) loadQuery(widgetType board.WidgetType) (map[string]any, error) {
	if cmd.QueryPath == "" {
		if def, ok := board.NewRegistry().Definition(widgetType); ok {
			return def.DefaultQuery, nil
		}
		return nil, nil
	}
	data, err := os.ReadFile(cmd.QueryPath)
	if err != nil {
		return nil, fmt.Errorf("boardctl: read query file: %w", err)
	}
	var query map[string]any
	if err := json.Unmarshal(data, &query); err != nil {
		return nil, fmt.Errorf("boardctl: parse query JSON: %w", err)
	}
	return query, nil
}

type typesCmd struct{}

func (cmd *typesCmd) Run(_ context.Context) error {
	registry := board.NewRegistry()
	for _, def := range registry.Definitions() {
		fmt.Fprintf(os.Stdout, "%-8s %s\n", def.Type, def.Name)
		if def.Description != "" {
			fmt.Fprintf(os.Stdout, "         %s\n", def.Description)
		}
		if len(def.DefaultQuery) > 0 {
			data, err := json.Marshal(def.DefaultQuery)
			if err == nil {
				fmt.Fprintf(os.Stdout, "         default query: %s\n", data)
			}
		}
	}
	return nil
}

type runCmd struct {
	ManifestPath string        `arg:"" type:"path" help:"Path to the board manifest YAML file."`
	Endpoint     string        `required:"" help:"Search backend base URL."`
	APIKey       string        `env:"BOARD_API_KEY" help:"API key for the search backend."`
	ServerID     string        `help:"Server identifier forwarded with every query."`
	Timeout      time.Duration `default:"30s" help:"Per-request timeout."`
}

func (cmd *runCmd) Run(ctx context.Context) error {
	doc, err := board.ReadManifest(cmd.ManifestPath)
	if err != nil {
		return err
	}
	client, err := search.NewHTTPClient(search.HTTPConfig{
		BaseURL:    cmd.Endpoint,
		APIKey:     cmd.APIKey,
		HTTPClient: &http.Client{Timeout: cmd.Timeout},
	})
	if err != nil {
		return err
	}
	service := board.NewService(board.Options{
		Store:    board.NewInMemoryWidgetStore(),
		Client:   client,
		ServerID: cmd.ServerID,
	})
	if err := board.SeedBoard(ctx, service, doc); err != nil {
		return err
	}
	service.Wait()

	snapshot, err := service.Board(ctx)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(snapshot)
}

func loadOrInitManifest(path string) (*board.BoardManifest, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &board.BoardManifest{
				Version: board.ManifestVersion,
				Widgets: []board.ManifestWidget{},
				Source:  path,
			}, nil
		}
		return nil, fmt.Errorf("boardctl: stat manifest: %w", err)
	}
	return board.ReadManifest(path)
}

// deriveTitle builds a readable default title like "Bar: Logs" from the type
// and index pattern.
func deriveTitle(widgetType board.WidgetType, index string) string {
	slug := strings.NewReplacer("*", "", "-", " ", "_", " ", ".", " ").Replace(index)
	name := strcase.ToPascal(string(widgetType))
	words := strings.Fields(slug)
	if len(words) == 0 {
		return name
	}
	for idx, word := range words {
		words[idx] = strcase.ToPascal(word)
	}
	return fmt.Sprintf("%s: %s", name, strings.Join(words, " "))
}
