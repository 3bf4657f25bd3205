// Package render produces the static podcast site: per-episode pages, the
// speaker-colored transcript page, the episode index, and the RSS feed.
//
// HTML pages come from embedded html/template files so every interpolated
// value is escaped. The feed is marshaled with encoding/xml.
package render
