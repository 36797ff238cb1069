package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// TrackColumns is the projection Search expects, in scan order.
var TrackColumns = []string{
	"id", "path", "title", "artist", "album", "albumartist", "genre",
	"label", "format", "year", "track", "disc", "bitrate", "length",
	"added", "mtime",
}

// Track is one row of the items table.
type Track struct {
	ID          int64   `yaml:"id,omitempty" json:"id"`
	Path        string  `yaml:"path" json:"path"`
	Title       string  `yaml:"title,omitempty" json:"title"`
	Artist      string  `yaml:"artist,omitempty" json:"artist"`
	Album       string  `yaml:"album,omitempty" json:"album"`
	AlbumArtist string  `yaml:"albumartist,omitempty" json:"albumartist"`
	Genre       string  `yaml:"genre,omitempty" json:"genre"`
	Label       string  `yaml:"label,omitempty" json:"label"`
	Format      string  `yaml:"format,omitempty" json:"format"`
	Year        int64   `yaml:"year,omitempty" json:"year"`
	Track       int64   `yaml:"track,omitempty" json:"track"`
	Disc        int64   `yaml:"disc,omitempty" json:"disc"`
	Bitrate     int64   `yaml:"bitrate,omitempty" json:"bitrate"`
	Length      Seconds `yaml:"length,omitempty" json:"length"`
	Added       Epoch   `yaml:"added,omitempty" json:"added"`
	Mtime       Epoch   `yaml:"mtime,omitempty" json:"mtime"`
}

// scanTargets returns pointers matching TrackColumns.
func (t *Track) scanTargets() []any {
	return []any{
		&t.ID, &t.Path, &t.Title, &t.Artist, &t.Album, &t.AlbumArtist, &t.Genre,
		&t.Label, &t.Format, &t.Year, &t.Track, &t.Disc, &t.Bitrate,
		(*int64)(&t.Length), (*int64)(&t.Added), (*int64)(&t.Mtime),
	}
}

// Value returns the named column of t as a string or an int64.
func (t *Track) Value(column string) (any, bool) {
	for i, name := range TrackColumns {
		if name != column {
			continue
		}
		switch v := t.scanTargets()[i].(type) {
		case *string:
			return *v, true
		case *int64:
			return *v, true
		}
	}
	return nil, false
}

// InsertTracks adds tracks in one transaction. Track IDs are assigned by
// the database in slice order; any ID already set on a track is ignored.
func (s *Store) InsertTracks(ctx context.Context, tracks []Track) error {
	cols := TrackColumns[1:]
	marks := make([]string, len(cols))
	for i := range cols {
		if s.isSQLite() {
			marks[i] = "?"
		} else {
			marks[i] = "$" + strconv.Itoa(i+1)
		}
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		Table, strings.Join(cols, ", "), strings.Join(marks, ", "))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	prepared, err := tx.PrepareContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer prepared.Close()

	for i := range tracks {
		t := &tracks[i]
		if t.Path == "" {
			return fmt.Errorf("track %d: path is required", i)
		}
		args := make([]any, 0, len(cols))
		for _, p := range t.scanTargets()[1:] {
			switch v := p.(type) {
			case *string:
				args = append(args, *v)
			case *int64:
				args = append(args, *v)
			}
		}
		if _, err := prepared.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert %s: %w", t.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

// Search runs a statement selecting TrackColumns and returns its rows in
// result order.
func (s *Store) Search(ctx context.Context, query string, params []any) ([]Track, error) {
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("search columns: %w", err)
	}
	if len(cols) != len(TrackColumns) {
		return nil, fmt.Errorf("search returned %d columns, want %d", len(cols), len(TrackColumns))
	}

	tracks := []Track{}
	for rows.Next() {
		var t Track
		if err := rows.Scan(t.scanTargets()...); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracks: %w", err)
	}
	return tracks, nil
}

// Count returns the number of rows in the items table.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+Table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tracks: %w", err)
	}
	return n, nil
}

// LoadTracks decodes a YAML list of tracks. Unknown keys are rejected.
func LoadTracks(r io.Reader) ([]Track, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var tracks []Track
	if err := dec.Decode(&tracks); err != nil {
		if errors.Is(err, io.EOF) {
			return []Track{}, nil
		}
		return nil, fmt.Errorf("decode tracks: %w", err)
	}
	return tracks, nil
}

// Epoch is a point in time as Unix seconds. In YAML it may be an integer,
// a "2006-01-02" date (UTC) or an RFC 3339 timestamp.
type Epoch int64

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *Epoch) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: date must be a scalar", n.Line)
	}
	if i, err := strconv.ParseInt(n.Value, 10, 64); err == nil {
		*e = Epoch(i)
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, n.Value); err == nil {
			*e = Epoch(t.Unix())
			return nil
		}
	}
	return fmt.Errorf("line %d: invalid date %q", n.Line, n.Value)
}

// Seconds is a duration in whole seconds. In YAML it may be an integer or
// "m:ss" / "h:mm:ss".
type Seconds int64

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Seconds) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: length must be a scalar", n.Line)
	}
	var total int64
	parts := strings.Split(n.Value, ":")
	if len(parts) > 3 {
		return fmt.Errorf("line %d: invalid length %q", n.Line, n.Value)
	}
	for i, part := range parts {
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil || v < 0 || (i > 0 && (len(part) != 2 || v > 59)) {
			return fmt.Errorf("line %d: invalid length %q", n.Line, n.Value)
		}
		total = total*60 + v
	}
	*s = Seconds(total)
	return nil
}
