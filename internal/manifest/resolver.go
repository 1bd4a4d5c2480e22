package manifest

import (
	"context"
	"fmt"
	"regexp"

	"github.com/vmunix/streamgrab/internal/session"
)

// guidPattern is an 8-4-4-4-12 hexadecimal identifier.
const guidPattern = `[0-9a-fA-F]{8}-(?:[0-9a-fA-F]{4}-){3}[0-9a-fA-F]{12}`

var (
	videoURL = regexp.MustCompile(`https://.*/video/(` + guidPattern + `)`)
	groupURL = regexp.MustCompile(`https://.*/group/(` + guidPattern + `)`)
)

// pageSize is the group listing page size; the service rejects anything larger.
const pageSize = 100

// SourceResolver expands one manifest line into video identifiers.
type SourceResolver interface {
	Resolve(ctx context.Context, line string) ([]string, error)
}

// GroupLister lists the members of a group.
type GroupLister interface {
	GroupVideoCount(ctx context.Context, sess session.Session, groupID string) (int, error)
	GroupVideos(ctx context.Context, sess session.Session, groupID string, skip, top int) ([]string, error)
}

// URLResolver recognizes video and group URLs.
type URLResolver struct {
	Groups  GroupLister
	Session session.Session
}

// NewURLResolver creates a resolver that expands groups through groups.
func NewURLResolver(groups GroupLister, sess session.Session) *URLResolver {
	return &URLResolver{Groups: groups, Session: sess}
}

// Resolve returns the single id of a video URL, or every member of a group URL
// ordered oldest published first. Other lines yield ErrUnrecognizedSource.
func (r *URLResolver) Resolve(ctx context.Context, line string) ([]string, error) {
	if m := videoURL.FindStringSubmatch(line); m != nil {
		return []string{m[1]}, nil
	}
	if m := groupURL.FindStringSubmatch(line); m != nil {
		return r.groupMembers(ctx, m[1])
	}
	return nil, ErrUnrecognizedSource
}

// groupMembers pages through a group until every member has been seen.
func (r *URLResolver) groupMembers(ctx context.Context, groupID string) ([]string, error) {
	if r.Groups == nil {
		return nil, fmt.Errorf("group %s: no group lister configured", groupID)
	}
	total, err := r.Groups.GroupVideoCount(ctx, r.Session, groupID)
	if err != nil {
		return nil, fmt.Errorf("count group %s: %w", groupID, err)
	}

	ids := make([]string, 0, total)
	seen := make(map[string]bool, total)
	for skip := 0; skip < total; skip += pageSize {
		page, err := r.Groups.GroupVideos(ctx, r.Session, groupID, skip, pageSize)
		if err != nil {
			return nil, fmt.Errorf("list group %s: %w", groupID, err)
		}
		for _, id := range page {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		// A short page means the group shrank since it was counted.
		if len(page) < pageSize {
			break
		}
	}
	return ids, nil
}
