package analyser

import (
	"bytes"
	"encoding/json"
	"net/url"
	"path"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// post is a lazily decoded post object. Fields are decoded one at a time so
// a malformed value only makes that field unknown.
type post map[string]json.RawMessage

func parsePost(raw json.RawMessage) (post, bool) {
	var p post
	if err := json.Unmarshal(raw, &p); err != nil || p == nil {
		return nil, false
	}
	// feeds sometimes hand out edges instead of nodes
	if node, ok := p["node"]; ok && len(p) == 1 {
		return parsePost(node)
	}
	return p, true
}

// lookup walks nested objects by key
func (p post) lookup(keys ...string) (json.RawMessage, bool) {
	cur := p
	for i, key := range keys {
		raw, ok := cur[key]
		if !ok || isNull(raw) {
			return nil, false
		}
		if i == len(keys)-1 {
			return raw, true
		}
		var next post
		if err := json.Unmarshal(raw, &next); err != nil || next == nil {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

func (p post) str(keys ...string) (string, bool) {
	raw, ok := p.lookup(keys...)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func (p post) boolean(keys ...string) (bool, bool) {
	raw, ok := p.lookup(keys...)
	if !ok {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, false
	}
	return b, true
}

// count reads a non-negative integer
func (p post) count(keys ...string) Field[int] {
	raw, ok := p.lookup(keys...)
	if !ok || bytes.HasPrefix(bytes.TrimSpace(raw), []byte(`"`)) {
		return Unknown[int]()
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return Unknown[int]()
	}
	v, err := n.Int64()
	if err != nil || v < 0 {
		return Unknown[int]()
	}
	return Known(int(v))
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func (p post) shortcode() string {
	if s, ok := p.str("shortcode"); ok && s != "" {
		return s
	}
	if s, ok := p.str("code"); ok && s != "" {
		return s
	}
	s, _ := p.str("id")
	return s
}

func (p post) likes() Field[int] {
	if f := p.count("edge_media_preview_like", "count"); f.IsKnown() {
		return f
	}
	return p.count("edge_liked_by", "count")
}

func (p post) comments() Field[int] {
	return p.count("edge_media_to_comment", "count")
}

// caption returns the text of the first caption edge
func (p post) caption() (string, bool) {
	raw, ok := p.lookup("edge_media_to_caption", "edges")
	if !ok {
		return "", false
	}
	var edges []struct {
		Node struct {
			Text *string `json:"text"`
		} `json:"node"`
	}
	if err := json.Unmarshal(raw, &edges); err != nil || len(edges) == 0 || edges[0].Node.Text == nil {
		return "", false
	}
	return *edges[0].Node.Text, true
}

func (p post) textLength() Field[int] {
	text, ok := p.caption()
	if !ok {
		return Unknown[int]()
	}
	return Known(utf8.RuneCountInString(text))
}

func (p post) tagAmount() Field[int] {
	text, ok := p.caption()
	if !ok {
		return Unknown[int]()
	}
	return Known(countHashtags(text))
}

func (p post) date(loc *time.Location) Field[time.Time] {
	ts := p.count("taken_at_timestamp")
	sec, ok := ts.Get()
	if !ok {
		return Unknown[time.Time]()
	}
	return Known(time.Unix(int64(sec), 0).In(loc))
}

// pinned reports whether the post is pinned to the top of the profile
func (p post) pinned() bool {
	raw, ok := p.lookup("pinned_for_users")
	if !ok {
		return false
	}
	var users []json.RawMessage
	return json.Unmarshal(raw, &users) == nil && len(users) > 0
}

// mediaURL prefers the video URL so .mp4 detection works on either field
func (p post) mediaURL() string {
	if s, ok := p.str("video_url"); ok && s != "" {
		return s
	}
	s, _ := p.str("display_url")
	return s
}

func (p post) video(mediaURL string) bool {
	if v, ok := p.boolean("is_video"); ok && v {
		return true
	}
	return isVideoURL(mediaURL)
}

func isVideoURL(raw string) bool {
	if raw == "" {
		return false
	}
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}
	return strings.EqualFold(path.Ext(p), ".mp4")
}

// countHashtags counts "#word" occurrences. A '#' directly after '&' is an
// HTML entity, not a tag.
func countHashtags(text string) int {
	n := 0
	prev := rune(0)
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '#' && prev != '&' {
			j := i + 1
			for j < len(runes) && isTagRune(runes[j]) {
				j++
			}
			if j > i+1 {
				n++
				prev = runes[j-1]
				i = j - 1
				continue
			}
		}
		prev = r
	}
	return n
}

func isTagRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// missingFields lists the metadata fields of r that are unknown
func missingFields(r *Record) []string {
	var missing []string
	if !r.Date.IsKnown() {
		missing = append(missing, "date")
	}
	if !r.Likes.IsKnown() {
		missing = append(missing, "likes")
	}
	if !r.Comments.IsKnown() {
		missing = append(missing, "comments")
	}
	if !r.TextLength.IsKnown() {
		missing = append(missing, "text_length")
	}
	if !r.TagAmount.IsKnown() {
		missing = append(missing, "tag_amount")
	}
	return missing
}
