package instagram

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the base URL for Instagram
	BaseURL = "https://www.instagram.com"

	// ProfileEndpoint returns a profile with its newest posts
	ProfileEndpoint = "/api/v1/users/web_profile_info/"

	// MediaEndpoint is the GraphQL endpoint used for timeline pagination
	MediaEndpoint = "/graphql/query/"

	// MediaQueryHash selects the owner timeline query
	MediaQueryHash = "e769aa130647d2354c40ea6a439bfc08"

	// WebAppID is sent as X-IG-App-ID, without it the profile endpoint
	// answers with an HTML login page
	WebAppID = "936619743392459"

	DefaultMediaLimit = 12
	MaxMediaLimit     = 50
)

// ProfileURL builds the profile URL of username under base
func ProfileURL(base, username string) string {
	params := url.Values{}
	params.Set("username", username)
	return fmt.Sprintf("%s%s?%s", strings.TrimRight(base, "/"), ProfileEndpoint, params.Encode())
}

// MediaURL builds the timeline page URL of a user. after is the end cursor
// of the previous page and is omitted when empty. limit is clamped to
// [1, MaxMediaLimit], non-positive values select DefaultMediaLimit.
func MediaURL(base, userID, after string, limit int) string {
	if limit <= 0 {
		limit = DefaultMediaLimit
	} else if limit > MaxMediaLimit {
		limit = MaxMediaLimit
	}

	variables, _ := json.Marshal(struct {
		ID    string `json:"id"`
		First int    `json:"first"`
		After string `json:"after,omitempty"`
	}{ID: userID, First: limit, After: after})

	params := url.Values{}
	params.Set("query_hash", MediaQueryHash)
	params.Set("variables", string(variables))
	return fmt.Sprintf("%s%s?%s", strings.TrimRight(base, "/"), MediaEndpoint, params.Encode())
}

// PostURL returns the public URL of a post
func PostURL(shortcode string) string {
	if shortcode == "" {
		return ""
	}
	return fmt.Sprintf("%s/p/%s/", BaseURL, shortcode)
}

// IsValidUsername checks if a username is valid according to Instagram rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}

	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}
	return true
}

// SanitizeUsername strips a leading @, a profile URL prefix and trailing
// slashes or spaces
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	for _, prefix := range []string{"https://www.instagram.com/", "https://instagram.com/", "http://www.instagram.com/", "instagram.com/"} {
		username = strings.TrimPrefix(username, prefix)
	}
	username = strings.TrimPrefix(username, "@")
	return strings.TrimRight(username, "/ ")
}
