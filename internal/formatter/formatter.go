// package formatter renders mood profiles and run history for the terminal (lipgloss), Markdown and plain text
package formatter

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/vibecast/internal/models"
)

const meterWidth = 20

// meter draws v in [0,1] as a fixed-width bar. Values outside the interval are clamped.
func meter(v float64) string {
	v = math.Max(0, math.Min(1, v))
	filled := int(math.Round(v * meterWidth))
	return strings.Repeat("█", filled) + strings.Repeat("░", meterWidth-filled)
}

type metric struct {
	name  string
	value float64
	unit  bool // value is in [0,1]
}

func metrics(p *models.MoodProfile) []metric {
	switch {
	case p.Averages != nil:
		a := p.Averages
		return []metric{
			{"Energy", a.Energy, true},
			{"Valence", a.Valence, true},
			{"Danceability", a.Danceability, true},
			{"Acousticness", a.Acousticness, true},
			{"Tempo", a.Tempo, false},
		}
	case p.SimulatedAverages != nil:
		s := p.SimulatedAverages
		return []metric{
			{"Energy", s.Energy, true},
			{"Happiness", s.Happiness, true},
			{"Danceability", s.Danceability, true},
		}
	default:
		return nil
	}
}

// RenderProfile renders p as a styled terminal card.
func RenderProfile(p *models.MoodProfile) string {
	if p == nil {
		return styles.err.Render("no profile")
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(p.PrimaryMood))
	b.WriteString("\n")
	b.WriteString(styles.help.Render(fmt.Sprintf("%d tracks · %s strategy", p.TrackCount, p.Strategy)))
	b.WriteString("\n\n")

	tags := make([]string, len(p.Tags))
	for i, t := range p.Tags {
		tags[i] = styles.tag.Render(t)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tags...))
	b.WriteString("\n\n")

	for _, m := range metrics(p) {
		b.WriteString(styles.label.Render(m.name))
		if m.unit {
			b.WriteString(fmt.Sprintf("%s %.2f\n", meter(m.value), m.value))
		} else {
			b.WriteString(fmt.Sprintf("%.1f BPM\n", m.value))
		}
	}
	if p.SimulatedAverages != nil {
		b.WriteString(styles.warn.Render("estimated by a language model, not measured"))
		b.WriteString("\n")
	}

	if len(p.ActivitySuggestions) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.label.Render("Good for"))
		b.WriteString(strings.Join(p.ActivitySuggestions, ", "))
		b.WriteString("\n")
	}

	if song := p.RecommendedSong; song != nil {
		b.WriteString("\n")
		b.WriteString(styles.label.Render("Try"))
		b.WriteString(styles.ok.Render(fmt.Sprintf("%s - %s", song.Artist, song.Name)))
		b.WriteString("\n")
		if song.Reason != "" {
			b.WriteString(styles.help.Render(song.Reason))
			b.WriteString("\n")
		}
		if song.PreviewURL != "" {
			b.WriteString(styles.label.Render("Preview"))
			b.WriteString(song.PreviewURL)
			b.WriteString("\n")
		}
	}

	return styles.box.Render(strings.TrimRight(b.String(), "\n"))
}

// ProfileToMarkdown converts p to a Markdown document.
func ProfileToMarkdown(p *models.MoodProfile, title string) []byte {
	var buf bytes.Buffer

	if title == "" {
		title = "Playlist Vibe"
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Mood**: %s\n\n", p.PrimaryMood)
	fmt.Fprintf(&buf, "**Tracks**: %d\n", p.TrackCount)
	fmt.Fprintf(&buf, "**Strategy**: %s\n\n", p.Strategy)

	if len(p.Tags) > 0 {
		buf.WriteString("**Tags**: ")
		for i, t := range p.Tags {
			if i > 0 {
				buf.WriteString(" ")
			}
			fmt.Fprintf(&buf, "`%s`", t)
		}
		buf.WriteString("\n\n")
	}

	if ms := metrics(p); len(ms) > 0 {
		buf.WriteString("## Averages\n\n")
		if p.SimulatedAverages != nil {
			buf.WriteString("_Estimated, not measured._\n\n")
		}
		buf.WriteString("| Metric | Value |\n|---|---|\n")
		for _, m := range ms {
			fmt.Fprintf(&buf, "| %s | %.2f |\n", m.name, m.value)
		}
		buf.WriteString("\n")
	}

	if len(p.ActivitySuggestions) > 0 {
		buf.WriteString("## Good for\n\n")
		for _, a := range p.ActivitySuggestions {
			fmt.Fprintf(&buf, "- %s\n", a)
		}
		buf.WriteString("\n")
	}

	if song := p.RecommendedSong; song != nil {
		buf.WriteString("## Recommended\n\n")
		if song.CoverArt != "" {
			fmt.Fprintf(&buf, "![Cover](%s)\n\n", song.CoverArt)
		}
		fmt.Fprintf(&buf, "**%s** by %s\n", song.Name, song.Artist)
		if song.Reason != "" {
			fmt.Fprintf(&buf, "\n%s\n", song.Reason)
		}
		if song.PreviewURL != "" {
			fmt.Fprintf(&buf, "\n[Preview](%s)\n", song.PreviewURL)
		}
	}

	return buf.Bytes()
}

// ProfileToText converts p to unstyled plain text.
func ProfileToText(p *models.MoodProfile) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Mood: %s\n", p.PrimaryMood)
	fmt.Fprintf(&buf, "Tracks: %d\n", p.TrackCount)
	fmt.Fprintf(&buf, "Strategy: %s\n", p.Strategy)
	fmt.Fprintf(&buf, "Tags: %s\n", strings.Join(p.Tags, ", "))
	if len(p.ActivitySuggestions) > 0 {
		fmt.Fprintf(&buf, "Good for: %s\n", strings.Join(p.ActivitySuggestions, ", "))
	}
	for _, m := range metrics(p) {
		fmt.Fprintf(&buf, "%s: %.2f\n", m.name, m.value)
	}
	if song := p.RecommendedSong; song != nil {
		fmt.Fprintf(&buf, "Recommended: %s - %s\n", song.Artist, song.Name)
	}

	return buf.Bytes()
}

// RenderRuns renders the run log as a table, newest first as given.
func RenderRuns(runs []*models.AnalysisRun) string {
	if len(runs) == 0 {
		return styles.help.Render("No analyses recorded yet.")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.help).
		Headers("WHEN", "PLAYLIST", "STRATEGY", "TRACKS", "STATUS", "TOOK").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.ok.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	for _, run := range runs {
		status := run.Status
		if run.ErrorKind != "" {
			status += " (" + run.ErrorKind + ")"
		}
		t.Row(
			run.Created.Local().Format(time.DateTime),
			run.PlaylistID,
			run.Strategy,
			fmt.Sprint(run.TrackCount),
			status,
			run.Duration.Round(time.Millisecond).String(),
		)
	}

	return t.Render()
}
