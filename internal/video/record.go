// Package video holds per-video metadata and assigns each video a unique output file.
package video

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Record is everything needed to download one video.
type Record struct {
	Identifier  string
	Title       string
	Author      string
	AuthorEmail string
	PublishDate string // YYYY-MM-DD, local time
	PublishTime string // H.M.S, local time
	Duration    string // H.M.S

	// DurationUnits is the duration in fractional minutes, the same unit
	// progress is reported in.
	DurationUnits float64

	PlaybackURL string
	CaptionsURL string // empty when the video has no caption track

	// OutputPath is set once by the Resolver.
	OutputPath string
}

// ShortID is '#' followed by the first group of the identifier.
func (r *Record) ShortID() string {
	head, _, _ := strings.Cut(r.Identifier, "-")
	return "#" + head
}

// Fields exposes the template placeholders for this record.
func (r *Record) Fields() map[string]any {
	return map[string]any{
		"title":       r.Title,
		"author":      r.Author,
		"authorEmail": r.AuthorEmail,
		"publishDate": r.PublishDate,
		"publishTime": r.PublishTime,
		"duration":    r.Duration,
		"uniqueId":    r.ShortID(),
		"shortId":     r.ShortID(),
		"id":          r.Identifier,
	}
}

// DurationToUnits converts a duration to fractional minutes.
// Seconds are rounded up before conversion.
func DurationToUnits(hours, minutes, seconds float64) float64 {
	return hours*60 + minutes + math.Ceil(seconds)/60
}

// FormatPublished splits a publish timestamp into the date and time strings
// used in file names.
func FormatPublished(t time.Time) (date, clock string) {
	t = t.Local()
	date = t.Format("2006-01-02")
	clock = fmt.Sprintf("%d.%d.%d", t.Hour(), t.Minute(), t.Second())
	return date, clock
}
