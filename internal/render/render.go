package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"moltcast/internal/transcript"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// SpeakerColors cycles across transcript speakers.
var SpeakerColors = []string{"#2563eb", "#7c3aed", "#059669", "#d97706", "#dc2626", "#6366f1"}

// Site carries the podcast-level settings shared by every page.
type Site struct {
	BaseURL     string
	Title       string
	Description string
}

// Entry is one published episode as listed on the index and feed.
type Entry struct {
	Episode     int
	Title       string
	Date        string
	Description string
}

// Number returns the zero-padded directory name.
func (e Entry) Number() string { return fmt.Sprintf("%03d", e.Episode) }

// Renderer renders pages for one site.
type Renderer struct {
	site Site
}

// New constructs a renderer. A missing trailing slash on the base URL is added.
func New(site Site) *Renderer {
	if site.BaseURL != "" && !strings.HasSuffix(site.BaseURL, "/") {
		site.BaseURL += "/"
	}
	return &Renderer{site: site}
}

// Site returns the normalized site settings.
func (r *Renderer) Site() Site { return r.site }

type speakerTurn struct {
	Slot  int
	Label string
	Text  string
}

// EpisodePage renders docs/episodes/NNN/index.html.
func (r *Renderer) EpisodePage(entry Entry) ([]byte, error) {
	return execute("episode.html.tmpl", struct {
		Entry
		SiteName string
	}{entry, r.site.Title})
}

// TranscriptPage renders docs/episodes/NNN/transcript.html. Consecutive
// segments from one speaker are merged and speakers are labelled Host A, Host
// B, ... in order of first appearance, cycling with the color palette.
func (r *Renderer) TranscriptPage(entry Entry, tr transcript.Transcript) ([]byte, error) {
	turns := tr.Turns()
	view := make([]speakerTurn, 0, len(turns))
	for _, turn := range turns {
		slot := turn.Index % len(SpeakerColors)
		view = append(view, speakerTurn{
			Slot:  slot,
			Label: "Host " + string(rune('A'+slot)),
			Text:  turn.Text,
		})
	}
	colors := make([]template.CSS, len(SpeakerColors))
	for i, c := range SpeakerColors {
		colors[i] = template.CSS(c)
	}
	return execute("transcript.html.tmpl", struct {
		Entry
		SiteName string
		Colors   []template.CSS
		Turns    []speakerTurn
	}{entry, r.site.Title, colors, view})
}

// IndexPage renders docs/index.html, newest episode first.
func (r *Renderer) IndexPage(entries []Entry) ([]byte, error) {
	return execute("index.html.tmpl", struct {
		SiteName    string
		Description string
		Entries     []Entry
	}{r.site.Title, r.site.Description, sortedEntries(entries)})
}

func execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", strings.TrimSuffix(name, ".tmpl"), err)
	}
	return buf.Bytes(), nil
}

func sortedEntries(entries []Entry) []Entry {
	out := append([]Entry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Episode > out[j].Episode })
	return out
}
