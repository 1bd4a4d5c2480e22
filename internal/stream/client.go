// Package stream is a client for the video platform's metadata API.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sosodev/duration"

	"github.com/vmunix/streamgrab/internal/session"
	"github.com/vmunix/streamgrab/internal/video"
)

const (
	// MaxPageSize is the largest $top the service accepts.
	MaxPageSize = 100

	hlsMimeType = "application/vnd.apple.mpegurl"
)

// Client calls the metadata API. It holds no credential; every call takes the
// session it should use.
type Client struct {
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = log.With("component", "stream")
	}
}

// New creates a metadata API client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get performs an authenticated GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, sess session.Session, path string, query url.Values, out any) error {
	endpoint, err := sess.Endpoint(path, query)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", acceptEncoding)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	body, err := responseBody(resp)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	if c.log != nil {
		c.log.Debug("api call", "path", path, "duration_ms", time.Since(start).Milliseconds())
	}
	return nil
}

// checkResponse maps HTTP status codes to errors.
func checkResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
}

// Video fetches metadata for a single video.
func (c *Client) Video(ctx context.Context, sess session.Session, id string) (*video.Record, error) {
	path := "videos/" + url.PathEscape(id)

	var vr videoResponse
	if err := c.get(ctx, sess, path, url.Values{"$expand": {"creator"}}, &vr); err != nil {
		return nil, err
	}
	return toRecord(id, path, &vr)
}

// toRecord validates a video response and converts it.
func toRecord(id, resource string, vr *videoResponse) (*video.Record, error) {
	missing := func(field string) error {
		return &MissingFieldError{Resource: resource, Field: field}
	}

	if vr.Name == nil {
		return nil, missing("name")
	}
	if vr.Media == nil || vr.Media.Duration == nil {
		return nil, missing("media.duration")
	}
	if vr.PublishedDate == nil {
		return nil, missing("publishedDate")
	}

	var playbackURL string
	for _, p := range vr.PlaybackURLs {
		if p.MimeType == hlsMimeType && p.PlaybackURL != "" {
			playbackURL = p.PlaybackURL
			break
		}
	}
	if playbackURL == "" {
		return nil, missing("playbackUrls[mimeType=" + hlsMimeType + "]")
	}

	d, err := duration.Parse(*vr.Media.Duration)
	if err != nil {
		return nil, fmt.Errorf("%s: parse duration %q: %w", resource, *vr.Media.Duration, err)
	}
	published, err := time.Parse(time.RFC3339, *vr.PublishedDate)
	if err != nil {
		return nil, fmt.Errorf("%s: parse publishedDate %q: %w", resource, *vr.PublishedDate, err)
	}
	date, clock := video.FormatPublished(published)

	hours := d.Hours + 24*d.Days
	rec := &video.Record{
		Identifier:    id,
		Title:         *vr.Name,
		PublishDate:   date,
		PublishTime:   clock,
		Duration:      fmt.Sprintf("%g.%g.%.0f", hours, d.Minutes, d.Seconds),
		DurationUnits: video.DurationToUnits(hours, d.Minutes, d.Seconds),
		PlaybackURL:   playbackURL,
	}
	if vr.Creator != nil {
		rec.Author = vr.Creator.Name
		rec.AuthorEmail = vr.Creator.Mail
	}
	return rec, nil
}

// Captions returns the URL of the first caption track, or "" if there is none.
func (c *Client) Captions(ctx context.Context, sess session.Session, id string) (string, error) {
	var tr textTracksResponse
	if err := c.get(ctx, sess, "videos/"+url.PathEscape(id)+"/texttracks", nil, &tr); err != nil {
		return "", err
	}
	for _, t := range tr.Value {
		if t.URL != "" {
			return t.URL, nil
		}
	}
	return "", nil
}

// GroupVideoCount returns how many videos a group holds.
func (c *Client) GroupVideoCount(ctx context.Context, sess session.Session, groupID string) (int, error) {
	path := "groups/" + url.PathEscape(groupID)

	var gr groupResponse
	if err := c.get(ctx, sess, path, nil, &gr); err != nil {
		return 0, err
	}
	if gr.Metrics == nil || gr.Metrics.Videos == nil {
		return 0, &MissingFieldError{Resource: path, Field: "metrics.videos"}
	}
	return *gr.Metrics.Videos, nil
}

// GroupVideos returns one page of group member ids, oldest published first.
func (c *Client) GroupVideos(ctx context.Context, sess session.Session, groupID string, skip, top int) ([]string, error) {
	if top > MaxPageSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrPageTooLarge, top, MaxPageSize)
	}
	query := url.Values{
		"$skip":    {strconv.Itoa(skip)},
		"$top":     {strconv.Itoa(top)},
		"$orderby": {"publishedDate asc"},
	}

	var gv groupVideosResponse
	if err := c.get(ctx, sess, "groups/"+url.PathEscape(groupID)+"/videos", query, &gv); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(gv.Value))
	for _, v := range gv.Value {
		ids = append(ids, v.ID)
	}
	return ids, nil
}

// FetchVideos fetches metadata for ids one at a time, in order.
// Caption URLs are looked up only when withCaptions is set.
func (c *Client) FetchVideos(ctx context.Context, sess session.Session, ids []string, withCaptions bool) ([]*video.Record, error) {
	videos := make([]*video.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := c.Video(ctx, sess, id)
		if err != nil {
			return nil, fmt.Errorf("fetch video %s: %w", id, err)
		}
		if withCaptions {
			captions, err := c.Captions(ctx, sess, id)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("fetch captions %s: %w", id, err)
			}
			rec.CaptionsURL = captions
		}
		videos = append(videos, rec)
	}
	return videos, nil
}
