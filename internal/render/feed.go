package render

import (
	"encoding/xml"
	"fmt"
	"time"
)

const pubDateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"

type rss struct {
	XMLName  xml.Name   `xml:"rss"`
	Version  string     `xml:"version,attr"`
	ITunesNS string     `xml:"xmlns:itunes,attr"`
	AtomNS   string     `xml:"xmlns:atom,attr"`
	Channel  rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string      `xml:"title"`
	Link        string      `xml:"link"`
	Description string      `xml:"description"`
	Language    string      `xml:"language"`
	Image       hrefElement `xml:"itunes:image"`
	AtomLink    atomLink    `xml:"atom:link"`
	Items       []rssItem   `xml:"item"`
}

type hrefElement struct {
	Href string `xml:"href,attr"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string       `xml:"title"`
	Link        string       `xml:"link"`
	Enclosure   rssEnclosure `xml:"enclosure"`
	PubDate     string       `xml:"pubDate,omitempty"`
	Description string       `xml:"description"`
	GUID        rssGUID      `xml:"guid"`
}

type rssEnclosure struct {
	URL  string `xml:"url,attr"`
	Type string `xml:"type,attr"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// Feed renders docs/feed.xml, newest episode first.
func (r *Renderer) Feed(entries []Entry) ([]byte, error) {
	base := r.site.BaseURL
	doc := rss{
		Version:  "2.0",
		ITunesNS: "http://www.itunes.com/dtds/podcast-1.0.dtd",
		AtomNS:   "http://www.w3.org/2005/Atom",
		Channel: rssChannel{
			Title:       r.site.Title,
			Link:        base,
			Description: r.site.Description,
			Language:    "en-us",
			Image:       hrefElement{Href: base + "artwork.jpg"},
			AtomLink:    atomLink{Href: base + "feed.xml", Rel: "self", Type: "application/rss+xml"},
		},
	}
	for _, entry := range sortedEntries(entries) {
		episodeURL := base + "episodes/" + entry.Number() + "/"
		description := entry.Description
		if description == "" {
			description = entry.Title
		}
		doc.Channel.Items = append(doc.Channel.Items, rssItem{
			Title:       fmt.Sprintf("Episode %d: %s", entry.Episode, entry.Title),
			Link:        episodeURL,
			Enclosure:   rssEnclosure{URL: episodeURL + "audio.mp3", Type: "audio/mpeg"},
			PubDate:     pubDate(entry.Date),
			Description: description,
			GUID:        rssGUID{IsPermaLink: true, Value: episodeURL},
		})
	}

	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render feed: %w", err)
	}
	out := append([]byte(xml.Header), data...)
	return append(out, '\n'), nil
}

func pubDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}
	return t.UTC().Format(pubDateLayout)
}
