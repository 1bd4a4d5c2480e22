// Package session holds the bearer credential used against the video platform,
// the authenticators that produce it and the on-disk cache that keeps it between runs.
package session

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Session is the credential plus the gateway needed to call the metadata service.
// It is a value: a refresh produces a new Session, it never edits one in place.
type Session struct {
	AccessToken       string `json:"AccessToken"`
	APIGatewayURI     string `json:"ApiGatewayUri"`
	APIGatewayVersion string `json:"ApiGatewayVersion"`
}

// Validate reports ErrIncomplete if any field needed for API calls is empty.
func (s Session) Validate() error {
	var missing []string
	if s.AccessToken == "" {
		missing = append(missing, "AccessToken")
	}
	if s.APIGatewayURI == "" {
		missing = append(missing, "ApiGatewayUri")
	}
	if s.APIGatewayVersion == "" {
		missing = append(missing, "ApiGatewayVersion")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
	}
	return nil
}

// AuthorizationHeader returns the header line passed to external tools.
func (s Session) AuthorizationHeader() string {
	return "Authorization: Bearer " + s.AccessToken
}

// Endpoint joins an API path onto the gateway and appends the api-version parameter.
// The path may carry its own query string.
func (s Session) Endpoint(path string, query url.Values) (string, error) {
	base, err := url.Parse(strings.TrimSuffix(s.APIGatewayURI, "/") + "/")
	if err != nil {
		return "", fmt.Errorf("parse gateway uri: %w", err)
	}
	rel, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", fmt.Errorf("parse path %q: %w", path, err)
	}
	u := base.ResolveReference(rel)

	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("api-version", s.APIGatewayVersion)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Authenticator produces a fresh Session by logging in against url.
// Interactive browser logins live outside this module and plug in here.
type Authenticator interface {
	Login(ctx context.Context, url string) (Session, error)
}
