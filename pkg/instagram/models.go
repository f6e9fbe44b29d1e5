package instagram

import "encoding/json"

// ProfileResponse is the body of the web profile endpoint
type ProfileResponse struct {
	RequiresToLogin bool        `json:"requires_to_login"`
	Data            ProfileData `json:"data"`
	Status          string      `json:"status"`
}

// ProfileData wraps the user in a profile response
type ProfileData struct {
	User *User `json:"user"`
}

// User is the subset of a profile igvision needs
type User struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	IsPrivate bool     `json:"is_private"`
	Timeline  Timeline `json:"edge_owner_to_timeline_media"`
}

// MediaResponse is the body of the GraphQL timeline query
type MediaResponse struct {
	Data   MediaData `json:"data"`
	Status string    `json:"status"`
}

// MediaData wraps the user in a media response
type MediaData struct {
	User *struct {
		Timeline Timeline `json:"edge_owner_to_timeline_media"`
	} `json:"user"`
}

// Timeline is one page of a user's posts. Edges stay raw so that a single
// odd post cannot fail decoding of the whole page.
type Timeline struct {
	Count    int               `json:"count"`
	PageInfo PageInfo          `json:"page_info"`
	Edges    []json.RawMessage `json:"edges"`
}

// PageInfo contains pagination information
type PageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	EndCursor   string `json:"end_cursor"`
}

// Nodes unwraps {"node": {...}} edges. Edges without a node are passed on
// unchanged.
func (t Timeline) Nodes() []json.RawMessage {
	nodes := make([]json.RawMessage, 0, len(t.Edges))
	for _, edge := range t.Edges {
		var e struct {
			Node json.RawMessage `json:"node"`
		}
		if err := json.Unmarshal(edge, &e); err == nil && len(e.Node) > 0 {
			nodes = append(nodes, e.Node)
			continue
		}
		nodes = append(nodes, edge)
	}
	return nodes
}
