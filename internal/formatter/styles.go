package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/soundmatch/internal/models"
	"github.com/desertthunder/soundmatch/internal/tasks"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// PlatformColor is the brand colour for p; unknown platforms are grey.
func PlatformColor(p models.Platform) lipgloss.Color {
	switch p {
	case models.Spotify:
		return lipgloss.Color("#1DB954")
	case models.YouTube:
		return lipgloss.Color("#FF0000")
	case models.Yandex:
		return lipgloss.Color("#FFCC00")
	case models.Apple:
		return lipgloss.Color("#000000")
	case models.SoundCloud:
		return lipgloss.Color("#FF5500")
	case models.Unknown:
		return lipgloss.Color("#808080")
	default:
		return lipgloss.Color("#808080")
	}
}

// PlatformBadge renders the platform name in its colour.
func PlatformBadge(p models.Platform) string {
	return lipgloss.NewStyle().Bold(true).Foreground(PlatformColor(p)).Render(p.DisplayName())
}

func Title(s string) string   { return styles.title.Render(s) }
func Success(s string) string { return styles.ok.Render(s) }
func Error(s string) string   { return styles.err.Render(s) }
func Warning(s string) string { return styles.warn.Render(s) }
func Help(s string) string    { return styles.help.Render(s) }

// StyledTracks renders search results for a terminal.
func StyledTracks(title string, tracks []models.Track) string {
	var b strings.Builder
	b.WriteString(Title(title) + "\n")
	if len(tracks) == 0 {
		b.WriteString(Warning("No results found.") + "\n")
		return b.String()
	}

	for i, t := range tracks {
		fmt.Fprintf(&b, "%2d. %s - %s %s\n", i+1, lipgloss.NewStyle().Bold(true).Render(t.Title), t.Artist, PlatformBadge(t.Source))
		fmt.Fprintf(&b, "    %s\n", Help(fmt.Sprintf("%s · %s · %s", t.Album, t.Year, t.Duration)))
		if u := t.URL(); u != "" {
			fmt.Fprintf(&b, "    %s\n", u)
		}
	}
	return b.String()
}

// StyledRecommendations renders a ranked list for a terminal.
func StyledRecommendations(title string, recs []models.Recommendation) string {
	var b strings.Builder
	b.WriteString(Title(title) + "\n")

	for i, r := range recs {
		fmt.Fprintf(&b, "%2d. %s - %s\n", i+1, lipgloss.NewStyle().Bold(true).Render(r.Title), r.Artist)
		fmt.Fprintf(&b, "    %s %s\n", scoreStyle(r.MatchScore).Render(fmt.Sprintf("Match: %d%%", r.MatchScore)), Help(r.Reason))
		if u := r.URL(); u != "" {
			fmt.Fprintf(&b, "    %s\n", u)
		}
	}
	return b.String()
}

func scoreStyle(score int) lipgloss.Style {
	switch {
	case score >= 85:
		return styles.ok
	case score >= 70:
		return styles.warn
	default:
		return styles.help
	}
}

// StyledIdentify renders an identify result, or a distinct not-found message.
func StyledIdentify(res *tasks.IdentifyResult) string {
	var b strings.Builder
	if !res.Found() {
		b.WriteString(Error("No results found") + "\n")
		fmt.Fprintf(&b, "%s\n", Help("Nothing matched "+res.Query.Text()))
		return b.String()
	}

	t := res.Match.Track
	b.WriteString(Title("Song Identified!") + "\n")
	fmt.Fprintf(&b, "%s by %s\n", lipgloss.NewStyle().Bold(true).Render(res.Query.Song), orValue(res.Query.Artist, t.Artist))
	if res.Match.Found {
		fmt.Fprintf(&b, "Found on %s\n", PlatformBadge(res.Match.Platform))
		if u := t.URL(); u != "" {
			fmt.Fprintf(&b, "  %s\n", u)
		}
	}
	if rec := res.Recognition; rec != nil {
		fmt.Fprintf(&b, "Album: %s  Release Date: %s\n", orValue(rec.Album, models.UnknownValue), orValue(rec.ReleaseDate, models.UnknownValue))
	}
	if res.SpotifyID != "" {
		fmt.Fprintf(&b, "Popularity: %d/100\n", res.Popularity)
		fmt.Fprintf(&b, "%s %s\n", PlatformBadge(models.Spotify), res.SpotifyURL)
	}
	if res.Mood != "" {
		fmt.Fprintf(&b, "Mood: %s  Tempo: %.0f BPM  Key: %d\n", res.Mood, res.Tempo, res.Key)
	}
	if res.Saved {
		b.WriteString(Success("Saved to history") + "\n")
	}
	return b.String()
}

func orValue(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// StyledStats renders a user's listening stats.
func StyledStats(stats *models.ListeningStats) string {
	var b strings.Builder
	b.WriteString(Title("Music Stats for "+stats.UserID) + "\n")
	fmt.Fprintf(&b, "Total Songs Identified: %d\n", stats.Total)
	if stats.Total == 0 {
		b.WriteString(Help("No history yet. Identify some songs first.") + "\n")
		return b.String()
	}

	writeCounts(&b, "Top Artists", stats.TopArtists)
	writeCounts(&b, "Favorite Genres", stats.TopGenres)
	return b.String()
}

func writeCounts(b *strings.Builder, heading string, counts []models.Count) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s\n", styles.ok.Render(heading))
	for i, c := range counts {
		fmt.Fprintf(b, "%d. %s (%d plays)\n", i+1, c.Name, c.Plays)
	}
}

// StyledSignals renders the analyzed signal set.
func StyledSignals(userID string, s models.SignalSet) string {
	var b strings.Builder
	b.WriteString(Title("Listening signals for "+userID) + "\n")
	if s.IsEmpty() {
		b.WriteString(Warning("I need to learn your music taste first.") + "\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Top artists: %s\n", joinOrNone(s.TopArtists))
	fmt.Fprintf(&b, "Top genres:  %s\n", joinOrNone(s.TopGenres))
	return b.String()
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

// StyledHistory renders history records, newest first as given.
func StyledHistory(records []models.HistoryRecord) string {
	var b strings.Builder
	b.WriteString(Title("Listening history") + "\n")
	if len(records) == 0 {
		b.WriteString(Help("No history yet.") + "\n")
		return b.String()
	}
	for _, r := range records {
		genre := ""
		if r.Genre != "" {
			genre = " [" + r.Genre + "]"
		}
		fmt.Fprintf(&b, "%s  %s - %s%s\n", Help(r.Timestamp.Local().Format("2006-01-02 15:04")), r.Title, r.Artist, genre)
	}
	return b.String()
}
