package reservations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ExportTSV writes reservations to a TSV file. gameID 0 exports every game.
func (s *Store) ExportTSV(ctx context.Context, gameID int64, outputPath string) error {
	return s.export(ctx, gameID, outputPath, "TSV", WriteTSV)
}

// ExportJSON writes reservations to a JSON file. gameID 0 exports every game.
func (s *Store) ExportJSON(ctx context.Context, gameID int64, outputPath string) error {
	return s.export(ctx, gameID, outputPath, "JSON", WriteJSON)
}

func (s *Store) export(ctx context.Context, gameID int64, outputPath, format string, write func(io.Writer, []Reservation) error) error {
	var (
		rs  []Reservation
		err error
	)
	if gameID == 0 {
		rs, err = s.All(ctx)
	} else {
		rs, err = s.List(ctx, gameID)
	}
	if err != nil {
		return err
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create %s file: %w", format, err)
	}
	defer f.Close()

	if err := write(f, rs); err != nil {
		return err
	}
	log.Info().Str("path", outputPath).Int("reservations", len(rs)).Msgf("Exported reservations to %s", format)
	return nil
}

// WriteTSV writes a header line and one row per reservation.
func WriteTSV(w io.Writer, rs []Reservation) error {
	if _, err := fmt.Fprintln(w, "game_id\tuser_id\ttimestamp\ttag"); err != nil {
		return fmt.Errorf("write TSV: %w", err)
	}
	for _, r := range rs {
		_, err := fmt.Fprintf(w, "%d\t%d\t%s\t%s\n",
			r.GameID,
			r.UserID,
			r.Timestamp.UTC().Format(time.RFC3339),
			escapeTSV(r.Tag),
		)
		if err != nil {
			return fmt.Errorf("write TSV: %w", err)
		}
	}
	return nil
}

// WriteJSON writes the reservations as an indented JSON array.
func WriteJSON(w io.Writer, rs []Reservation) error {
	if rs == nil {
		rs = []Reservation{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(rs); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// escapeTSV replaces tabs and newlines in a string for TSV safety.
func escapeTSV(s string) string {
	s = strings.ReplaceAll(s, "\t", "\\t")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	return s
}
