package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/campus/internal/db"
	"github.com/javiermolinar/campus/internal/engine"
	"github.com/javiermolinar/campus/internal/schedule"
)

// weekDocument is the JSON form of one exported classroom week.
type weekDocument struct {
	Classroom string        `json:"classroom"`
	Week      string        `json:"week"`
	Schedule  schedule.Week `json:"schedule"`
}

func (a *App) exportCmd() *cobra.Command {
	var week string
	var output string
	var toClipboard bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a week as JSON",
		Long: `Write the selected week as JSON to stdout, a file or the clipboard.

Example:
  campus export --week next --output week.json
  campus export --copy`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			key, err := a.weekKey(ctx, week)
			if err != nil {
				return err
			}
			snap, err := a.engine.Get(ctx, key)
			if err != nil {
				return err
			}

			data, err := encodeWeek(snap)
			if err != nil {
				return err
			}

			switch {
			case toClipboard:
				if err := clipboard.WriteAll(string(data)); err != nil {
					return fmt.Errorf("copying to clipboard: %w", err)
				}
				fmt.Fprintf(a.out, "Copied week of %s to clipboard\n", key.Date())
			case output != "":
				path, err := resolvePath(output)
				if err != nil {
					return err
				}
				if err := os.WriteFile(path, data, 0o644); err != nil {
					return fmt.Errorf("writing %s: %w", path, err)
				}
				fmt.Fprintf(a.out, "Exported week of %s to %s\n", key.Date(), path)
			default:
				fmt.Fprintln(a.out, string(data))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&week, "week", "w", "this", "Week to export")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	cmd.Flags().BoolVar(&toClipboard, "copy", false, "Copy to the clipboard instead of stdout")
	return cmd
}

func (a *App) importCmd() *cobra.Command {
	var week string

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import weeks from a JSON export or another database",
		Long: `Import a week exported with 'campus export', or every stored week of the
configured classrooms from another campus SQLite database.

A JSON import replaces the target week as a whole and is validated first.
The target is --week when given, otherwise the week named in the file.

Example:
  campus import week.json --week next
  campus import /path/to/other.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.ensureEngine(ctx); err != nil {
				return err
			}

			sourcePath, err := resolvePath(args[0])
			if err != nil {
				return err
			}
			info, err := os.Stat(sourcePath)
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("source does not exist: %s", sourcePath)
				}
				return fmt.Errorf("checking source: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("source path is a directory: %s", sourcePath)
			}

			if strings.EqualFold(filepath.Ext(sourcePath), ".json") {
				return a.importJSON(ctx, sourcePath, week, cmd.Flags().Changed("week"))
			}

			destPath, err := resolvePath(a.config.Storage.DBPath)
			if err == nil && a.config.Storage.Driver == db.DriverSQLite && sourcePath == destPath {
				return fmt.Errorf("source database matches current database")
			}

			ids, err := a.importClassrooms()
			if err != nil {
				return err
			}
			count, err := importWeeks(ctx, a.engine, sourcePath, ids)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Imported %d weeks from %s\n", count, sourcePath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&week, "week", "w", "this", "Target week for a JSON import")
	return cmd
}

func (a *App) importJSON(ctx context.Context, path, week string, weekSet bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := decodeWeek(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if !weekSet && doc.Week != "" {
		week = doc.Week
	}

	classroomID, err := a.classroomOr(doc.Classroom)
	if err != nil {
		return err
	}
	key, err := a.engine.ResolveKey(classroomID, week)
	if err != nil {
		return err
	}
	snap, err := a.engine.Replace(ctx, key, doc.Schedule)
	if err != nil {
		return a.reportEditError(err)
	}
	fmt.Fprintf(a.out, "Imported %d entries into week of %s\n", snap.Week.Len(), key.Date())
	return nil
}

// classroomOr prefers --classroom, then fallback, then the first configured classroom.
func (a *App) classroomOr(fallback string) (string, error) {
	if a.classroomID == "" && fallback != "" {
		return fallback, nil
	}
	return a.classroom()
}

// importClassrooms returns the classrooms whose weeks a database import copies.
func (a *App) importClassrooms() ([]string, error) {
	if a.classroomID != "" {
		return []string{a.classroomID}, nil
	}
	rooms := a.engine.Classrooms()
	if len(rooms) == 0 {
		return nil, fmt.Errorf("no classrooms to import: pass --classroom or configure [[classrooms]]")
	}
	ids := make([]string, len(rooms))
	for i, r := range rooms {
		ids[i] = r.ID
	}
	return ids, nil
}

// importWeeks copies every stored week of classroomIDs from the SQLite
// database at sourcePath into dest, validating each one.
func importWeeks(ctx context.Context, dest *engine.Engine, sourcePath string, classroomIDs []string) (int, error) {
	sourceRepo, err := db.New(sourcePath)
	if err != nil {
		return 0, fmt.Errorf("opening source database: %w", err)
	}
	defer func() { _ = sourceRepo.Close() }()

	imported := 0
	for _, id := range classroomIDs {
		keys, err := sourceRepo.ListWeeks(ctx, id)
		if err != nil {
			return imported, fmt.Errorf("listing weeks of %s: %w", id, err)
		}
		for _, key := range keys {
			snap, found, err := sourceRepo.Load(ctx, key)
			if err != nil {
				return imported, fmt.Errorf("loading %s: %w", key, err)
			}
			if !found {
				continue
			}
			if _, err := dest.Replace(ctx, key, snap.Week); err != nil {
				return imported, fmt.Errorf("importing %s: %w", key, err)
			}
			imported++
		}
	}

	return imported, nil
}

func encodeWeek(snap schedule.Snapshot) ([]byte, error) {
	doc := weekDocument{
		Classroom: snap.Key.ClassroomID,
		Week:      snap.Key.Date(),
		Schedule:  snap.Week,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding week: %w", err)
	}
	return data, nil
}

// decodeWeek accepts an exported document or a bare day-to-entries object.
func decodeWeek(data []byte) (weekDocument, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return weekDocument{}, fmt.Errorf("parsing JSON: %w", err)
	}

	var doc weekDocument
	if _, ok := fields["schedule"]; ok {
		if err := json.Unmarshal(data, &doc); err != nil {
			return weekDocument{}, fmt.Errorf("parsing week document: %w", err)
		}
	} else if err := json.Unmarshal(data, &doc.Schedule); err != nil {
		return weekDocument{}, fmt.Errorf("parsing week: %w", err)
	}
	if doc.Schedule == nil {
		doc.Schedule = schedule.EmptyWeek()
	}
	return doc, nil
}

func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("empty path")
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	return absPath, nil
}
