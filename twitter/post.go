package twitter

import (
	"fmt"
	"strings"
)

// Post is one fetched tweet. Only Text is consumed by the retrieval core;
// the rest rides along as source metadata.
type Post struct {
	ID        string   `json:"id"`
	Author    string   `json:"author"`
	Username  string   `json:"username"`
	Text      string   `json:"text"`
	CreatedAt string   `json:"created_at"`
	Likes     int      `json:"likes"`
	Retweets  int      `json:"retweets"`
	Replies   int      `json:"replies"`
	Views     int      `json:"views"`
	URL       string   `json:"url"`
	Hashtags  []string `json:"hashtags,omitempty"`
	Mentions  []string `json:"mentions,omitempty"`
}

// Format renders the post as the labelled text block that gets chunked and
// indexed, one "Header: value" line per field.
func (p Post) Format() string {
	lines := []string{
		"Type: tweet",
		"Author: " + orUnknown(p.Author),
		"Username: @" + orUnknown(p.Username),
		"Tweet Link: " + orUnknown(p.URL),
		"Content: " + p.Text,
		"Published Time: " + orUnknown(p.CreatedAt),
		fmt.Sprintf("Likes: %d", p.Likes),
		fmt.Sprintf("Retweets: %d", p.Retweets),
		fmt.Sprintf("Replies: %d", p.Replies),
		fmt.Sprintf("Views: %d", p.Views),
		"Hashtags: " + strings.Join(p.Hashtags, ", "),
		"Mentions: " + strings.Join(p.Mentions, ", "),
	}
	return strings.Join(lines, "\n")
}

// Metadata returns the post fields the retriever attaches to every chunk.
func (p Post) Metadata() map[string]any {
	return map[string]any{
		"tweet_id":  p.ID,
		"author":    p.Author,
		"username":  p.Username,
		"tweet_url": p.URL,
		"likes":     p.Likes,
		"retweets":  p.Retweets,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
