package render

import (
	"bytes"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"moltcast/internal/transcript"
)

func testRenderer() *Renderer {
	return New(Site{
		BaseURL:     "https://example.com/podcast",
		Title:       "Moltbook Report Podcast",
		Description: "AI-generated deep dives into Moltbook.",
	})
}

func parseHTML(t *testing.T, data []byte) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestEpisodePageEscapesTitle(t *testing.T) {
	data, err := testRenderer().EpisodePage(Entry{Episode: 7, Title: `Agents <script>alert("x")</script>`, Date: "2026-02-03"})
	if err != nil {
		t.Fatalf("EpisodePage: %v", err)
	}
	if bytes.Contains(data, []byte("<script>")) {
		t.Fatalf("expected title to be escaped:\n%s", data)
	}
	doc := parseHTML(t, data)
	if got := doc.Find("h1").Text(); got != `Episode 7: Agents <script>alert("x")</script>` {
		t.Fatalf("unexpected heading %q", got)
	}
	if src, _ := doc.Find("audio source").Attr("src"); src != "audio.mp3" {
		t.Fatalf("unexpected audio src %q", src)
	}
	if got := doc.Find("p.meta").Text(); got != "Published: 2026-02-03" {
		t.Fatalf("unexpected meta %q", got)
	}
	if href, _ := doc.Find("a.transcript-link").Attr("href"); href != "transcript.html" {
		t.Fatalf("unexpected transcript link %q", href)
	}
}

func TestTranscriptPageConsolidatesSpeakers(t *testing.T) {
	tr := transcript.Transcript{Segments: []transcript.Segment{
		{Speaker: "SPEAKER_00", Text: "Welcome back."},
		{Speaker: "SPEAKER_00", Text: "Today we read posts."},
		{Speaker: "SPEAKER_01", Text: "Sounds <fun>."},
		{Text: "Who said this?"},
	}}
	data, err := testRenderer().TranscriptPage(Entry{Episode: 2, Title: "Memory"}, tr)
	if err != nil {
		t.Fatalf("TranscriptPage: %v", err)
	}
	doc := parseHTML(t, data)

	speakers := doc.Find("p.speaker")
	if speakers.Length() != 3 {
		t.Fatalf("expected 3 speaker turns, got %d", speakers.Length())
	}
	labels := speakers.Map(func(_ int, s *goquery.Selection) string { return s.Text() })
	if strings.Join(labels, ",") != "Host A:,Host B:,Host A:" {
		t.Fatalf("unexpected labels %v", labels)
	}
	if !speakers.Eq(1).HasClass("speaker-1") {
		t.Fatal("expected second speaker to use color slot 1")
	}
	utterances := doc.Find("p.utterance")
	if got := utterances.First().Text(); got != "Welcome back. Today we read posts." {
		t.Fatalf("unexpected consolidated text %q", got)
	}
	if got := utterances.Eq(1).Text(); got != "Sounds <fun>." {
		t.Fatalf("unexpected escaped text %q", got)
	}
	if !strings.Contains(doc.Find("style").Text(), ".speaker-5 { color: #6366f1; }") {
		t.Fatal("expected full speaker palette in styles")
	}
}

func TestTranscriptPageCyclesPalette(t *testing.T) {
	var segs []transcript.Segment
	for _, s := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		segs = append(segs, transcript.Segment{Speaker: s, Text: s})
	}
	data, err := testRenderer().TranscriptPage(Entry{Episode: 1}, transcript.Transcript{Segments: segs})
	if err != nil {
		t.Fatal(err)
	}
	last := parseHTML(t, data).Find("p.speaker").Last()
	if !last.HasClass("speaker-0") || last.Text() != "Host A:" {
		t.Fatalf("expected seventh speaker to wrap to slot 0, got %q", last.Text())
	}
}

func TestIndexPageOrdersNewestFirst(t *testing.T) {
	data, err := testRenderer().IndexPage([]Entry{
		{Episode: 1, Title: "First", Date: "2026-01-01"},
		{Episode: 3, Title: "Third", Date: "2026-01-03"},
		{Episode: 2, Title: "Second", Date: "2026-01-02"},
	})
	if err != nil {
		t.Fatalf("IndexPage: %v", err)
	}
	doc := parseHTML(t, data)
	links := doc.Find("ul.episodes li a")
	if links.Length() != 3 {
		t.Fatalf("expected 3 entries, got %d", links.Length())
	}
	if href, _ := links.First().Attr("href"); href != "episodes/003/" {
		t.Fatalf("unexpected first href %q", href)
	}
	if doc.Find("title").Text() != "Moltbook Report Podcast" {
		t.Fatalf("unexpected page title %q", doc.Find("title").Text())
	}
}

func TestFeedStructure(t *testing.T) {
	data, err := testRenderer().Feed([]Entry{
		{Episode: 1, Title: "First & foremost", Date: "2026-02-03"},
		{Episode: 12, Title: "Twelve", Date: "2026-03-01", Description: "custom"},
	})
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte(`<?xml version="1.0" encoding="UTF-8"?>`)) {
		t.Fatalf("missing xml header:\n%s", data)
	}

	var parsed struct {
		Channel struct {
			Title string `xml:"title"`
			Links []struct {
				Href  string `xml:"href,attr"`
				Rel   string `xml:"rel,attr"`
				Value string `xml:",chardata"`
			} `xml:"link"`
			Items []struct {
				Title     string `xml:"title"`
				Link      string `xml:"link"`
				PubDate   string `xml:"pubDate"`
				Desc      string `xml:"description"`
				Enclosure struct {
					URL string `xml:"url,attr"`
				} `xml:"enclosure"`
			} `xml:"item"`
		} `xml:"channel"`
	}
	if err := xml.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal feed: %v", err)
	}
	// <link> and <atom:link> share a local name, so both land in Links.
	var channelLink, selfHref string
	for _, link := range parsed.Channel.Links {
		if link.Rel == "self" {
			selfHref = link.Href
			continue
		}
		channelLink = link.Value
	}
	if channelLink != "https://example.com/podcast/" {
		t.Fatalf("unexpected channel link %q", channelLink)
	}
	if selfHref != "https://example.com/podcast/feed.xml" {
		t.Fatalf("unexpected atom self link %q", selfHref)
	}
	items := parsed.Channel.Items
	if len(items) != 2 || items[0].Title != "Episode 12: Twelve" {
		t.Fatalf("unexpected items %+v", items)
	}
	if items[0].Desc != "custom" || items[1].Desc != "First & foremost" {
		t.Fatalf("unexpected descriptions %q %q", items[0].Desc, items[1].Desc)
	}
	if items[1].Enclosure.URL != "https://example.com/podcast/episodes/001/audio.mp3" {
		t.Fatalf("unexpected enclosure %q", items[1].Enclosure.URL)
	}
	if items[1].PubDate != "Tue, 03 Feb 2026 00:00:00 GMT" {
		t.Fatalf("unexpected pubDate %q", items[1].PubDate)
	}
	if !bytes.Contains(data, []byte(`<itunes:image href="https://example.com/podcast/artwork.jpg"></itunes:image>`)) {
		t.Fatalf("missing itunes image:\n%s", data)
	}
}
