// package formatter renders tracks, recommendations and history as CSV, Markdown, plain text, JSON or styled terminal output
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/soundmatch/internal/models"
	"github.com/desertthunder/soundmatch/internal/shared"
)

// Format selects an output rendering.
type Format string

const (
	Styled   Format = "styled"
	Text     Format = "text"
	Markdown Format = "markdown"
	CSV      Format = "csv"
	JSON     Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{Styled, Text, Markdown, CSV, JSON}

// ParseFormat accepts a format name, case-insensitively. Empty means [Styled].
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Styled, nil
	case Styled, Text, Markdown, CSV, JSON:
		return f, nil
	case "md":
		return Markdown, nil
	case "txt", "plain":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: %q", shared.ErrUnsupportedFormat, s)
	}
}

var trackHeaders = []string{"Title", "Artist", "Album", "Year", "Duration", "Platform", "URL", "Confidence"}

func trackRecord(t models.Track) []string {
	return []string{
		t.Title,
		t.Artist,
		orValue(t.Album, models.UnknownValue),
		orValue(t.Year, models.UnknownValue),
		t.Duration.String(),
		string(t.Source),
		t.URL(),
		strconv.FormatFloat(t.Confidence, 'f', 2, 64),
	}
}

// Tracks renders search results in f.
func Tracks(f Format, title string, tracks []models.Track) ([]byte, error) {
	switch f {
	case CSV:
		return TracksToCSV(tracks)
	case Markdown:
		return TracksToMarkdown(title, tracks), nil
	case Text:
		return TracksToText(title, tracks), nil
	case JSON:
		return ToJSON(tracks)
	default:
		return []byte(StyledTracks(title, tracks)), nil
	}
}

// Recommendations renders a ranked list in f.
func Recommendations(f Format, title string, recs []models.Recommendation) ([]byte, error) {
	switch f {
	case CSV:
		return RecommendationsToCSV(recs)
	case Markdown:
		return RecommendationsToMarkdown(title, recs), nil
	case Text:
		return RecommendationsToText(title, recs), nil
	case JSON:
		return ToJSON(recs)
	default:
		return []byte(StyledRecommendations(title, recs)), nil
	}
}

// TracksToCSV converts tracks to CSV with columns: Title, Artist, Album, Year, Duration, Platform, URL, Confidence
func TracksToCSV(tracks []models.Track) ([]byte, error) {
	rows := make([][]string, len(tracks))
	for i, t := range tracks {
		rows[i] = trackRecord(t)
	}
	return writeCSV(trackHeaders, rows)
}

// RecommendationsToCSV adds Score and Reason columns to the track columns.
func RecommendationsToCSV(recs []models.Recommendation) ([]byte, error) {
	headers := append(append([]string{}, trackHeaders...), "Score", "Reason")
	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = append(trackRecord(r.Track), strconv.Itoa(r.MatchScore), r.Reason)
	}
	return writeCSV(headers, rows)
}

// HistoryToCSV converts history records to CSV, newest first as given.
func HistoryToCSV(records []models.HistoryRecord) ([]byte, error) {
	headers := []string{"ID", "User", "Title", "Artist", "Genre", "URL", "Timestamp"}
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{r.ID, r.UserID, r.Title, r.Artist, r.Genre, r.SourceURL, r.Timestamp.Format("2006-01-02T15:04:05Z07:00")}
	}
	return writeCSV(headers, rows)
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// TracksToMarkdown renders a numbered list with links.
func TracksToMarkdown(title string, tracks []models.Track) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	if len(tracks) == 0 {
		buf.WriteString("No results found.\n")
		return buf.Bytes()
	}

	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(tracks))
	for i, t := range tracks {
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s] (%s)\n", i+1, t.Artist, markdownLink(t.Title, t.URL()), albumPart(t.Album), t.Duration, t.Source.DisplayName())
	}
	return buf.Bytes()
}

// RecommendationsToMarkdown renders recommendations with score and reason.
func RecommendationsToMarkdown(title string, recs []models.Recommendation) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	for i, r := range recs {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, markdownLink(r.Title, r.URL()), r.Artist)
		fmt.Fprintf(&buf, "   *Match: %d%% | %s*\n", r.MatchScore, r.Reason)
	}
	return buf.Bytes()
}

func markdownLink(text, url string) string {
	if url == "" {
		return text
	}
	return fmt.Sprintf("[%s](%s)", text, url)
}

func albumPart(album string) string {
	if album == "" || album == models.UnknownValue {
		return ""
	}
	return fmt.Sprintf(" (%s)", album)
}

// TracksToText renders one line per track.
func TracksToText(title string, tracks []models.Track) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", title)
	if len(tracks) == 0 {
		buf.WriteString("No results found.\n")
		return buf.Bytes()
	}

	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(tracks))
	for i, t := range tracks {
		fmt.Fprintf(&buf, "%d. %s - %s [%s] %s\n", i+1, t.Artist, t.Title, t.Duration, t.Source.DisplayName())
		if u := t.URL(); u != "" {
			fmt.Fprintf(&buf, "   %s\n", u)
		}
	}
	return buf.Bytes()
}

// RecommendationsToText renders one entry per recommendation.
func RecommendationsToText(title string, recs []models.Recommendation) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n\n", title)
	for i, r := range recs {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, r.Title, r.Artist)
		fmt.Fprintf(&buf, "   Match: %d%% | %s\n", r.MatchScore, r.Reason)
	}
	return buf.Bytes()
}

// ToJSON marshals v with two-space indentation.
func ToJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// DefaultFilename names an export after base with the extension for f.
func DefaultFilename(base string, f Format) string {
	switch f {
	case CSV:
		return base + ".csv"
	case Markdown:
		return base + ".md"
	case JSON:
		return base + ".json"
	default:
		return base + ".txt"
	}
}

// WriteExport writes data to path, defaulting to [DefaultFilename] of base.
func WriteExport(path, base string, f Format, data []byte) (string, error) {
	if path == "" {
		path = DefaultFilename(base, f)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s export: %w", f, err)
	}
	return path, nil
}
