package cms

import "encoding/json"

// Typed records for each content kind. Records are read-only here: the
// site never creates, mutates or deletes them. Every relation that may or
// may not be populated is a pointer or slice, so an un-populated call
// site decodes cleanly to nil.

// Media is an uploaded file reference (cover images, avatars, award art).
type Media struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Mime   string `json:"mime,omitempty"`
}

// Author is an article byline.
type Author struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Bio    string `json:"bio,omitempty"`
	Avatar *Media `json:"avatar,omitempty"`
}

// Category groups articles.
type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

// Tag is a free-form article label.
type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Article is a news post. Content holds the nested rich-content block
// tree as raw JSON; see richtext.go for the derivations computed from it.
type Article struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Excerpt     string          `json:"excerpt,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`
	PublishedAt string          `json:"publishedAt,omitempty"`
	Cover       *Media          `json:"cover,omitempty"`
	Author      *Author         `json:"author,omitempty"`
	Category    *Category       `json:"category,omitempty"`
	Tags        []Tag           `json:"tags,omitempty"`
}

// Game is a wiki entry for one title.
type Game struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	ReleaseDate string `json:"releaseDate,omitempty"`
	Platforms   string `json:"platforms,omitempty"`
	Cover       *Media `json:"cover,omitempty"`
}

// Achievement is an unlockable award belonging to a game.
type Achievement struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Points      int    `json:"points,omitempty"`
	Secret      bool   `json:"secret,omitempty"`
	Image       *Media `json:"image,omitempty"`
	Game        *Game  `json:"game,omitempty"`
}

// Guide is a walkthrough, looked up by the (game slug, guide slug) pair.
type Guide struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Summary     string          `json:"summary,omitempty"`
	Content     json.RawMessage `json:"content,omitempty"`
	PublishedAt string          `json:"publishedAt,omitempty"`
	Cover       *Media          `json:"cover,omitempty"`
	Game        *Game           `json:"game,omitempty"`
	Author      *Author         `json:"author,omitempty"`
}

// Heist is a wiki page for one heist (setup costs, crew, payouts).
type Heist struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Slug     string          `json:"slug"`
	Setup    string          `json:"setup,omitempty"`
	Payout   string          `json:"payout,omitempty"`
	Crew     int             `json:"crew,omitempty"`
	Content  json.RawMessage `json:"content,omitempty"`
	Cover    *Media          `json:"cover,omitempty"`
	Game     *Game           `json:"game,omitempty"`
}

// Job is a player-created or official mission page.
type Job struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Mode        string `json:"mode,omitempty"`
	Players     string `json:"players,omitempty"`
	Description string `json:"description,omitempty"`
	Cover       *Media `json:"cover,omitempty"`
}

// WeeklyEvent is the rotating in-game event summary (bonuses, discounts).
type WeeklyEvent struct {
	ID        int             `json:"id"`
	Title     string          `json:"title"`
	StartsAt  string          `json:"startsAt,omitempty"`
	EndsAt    string          `json:"endsAt,omitempty"`
	Bonuses   json.RawMessage `json:"bonuses,omitempty"`
	Discounts json.RawMessage `json:"discounts,omitempty"`
}
