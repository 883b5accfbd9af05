// VinylVault - Vinyl Collection Intelligence and Cover Art Cache
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vinylvault

package selection

import (
	"context"
	"time"
)

// Feedback is a user reaction to a served selection.
type Feedback int

const (
	// FeedbackDislike indicates the user disliked the selection.
	FeedbackDislike Feedback = -1
	// FeedbackNeutral indicates no strong reaction.
	FeedbackNeutral Feedback = 0
	// FeedbackLike indicates the user liked the selection.
	FeedbackLike Feedback = 1
)

// String returns a human-readable name for the feedback value.
func (f Feedback) String() string {
	switch f {
	case FeedbackDislike:
		return "dislike"
	case FeedbackNeutral:
		return "neutral"
	case FeedbackLike:
		return "like"
	default:
		return "unknown"
	}
}

// Valid reports whether f is one of the three recognized feedback values.
func (f Feedback) Valid() bool {
	return f >= FeedbackDislike && f <= FeedbackLike
}

// AlbumSnapshot is a read-only view of one album as the engine consumes it.
// Snapshots come from the collaborator store; the engine never mutates album
// rows except through the Library's play-count update path.
type AlbumSnapshot struct {
	// ID is the unique album identifier.
	ID int64 `json:"id"`

	// Title is the album title.
	Title string `json:"title"`

	// Artist is the primary artist name.
	Artist string `json:"artist"`

	// Year is the release year.
	Year int `json:"year,omitempty"`

	// Genres is the ordered genre list; the first entry is the primary genre.
	Genres []string `json:"genres"`

	// Rating is the user rating in [1, 5]; zero means unrated.
	Rating int `json:"rating"`

	// PlayCount is the number of recorded plays.
	PlayCount int `json:"play_count"`

	// DateAdded is when the album entered the collection.
	DateAdded time.Time `json:"date_added"`

	// LastPlayed is when the album was last played, nil if never.
	LastPlayed *time.Time `json:"last_played,omitempty"`

	// CoverURL is the source URL of the cover art.
	CoverURL string `json:"cover_url,omitempty"`
}

// PrimaryGenre returns the first genre, or an empty string.
func (a *AlbumSnapshot) PrimaryGenre() string {
	if len(a.Genres) == 0 {
		return ""
	}
	return a.Genres[0]
}

// WeightFactors holds the per-signal multipliers computed for one album.
// A fixed-field value type rather than a bag of named numbers so that the
// optimizer and telemetry paths get compile-time field safety.
type WeightFactors struct {
	// Rating is the rating factor.
	Rating float64 `json:"rating"`

	// PlayCount is the play-frequency factor.
	PlayCount float64 `json:"play_count"`

	// Recency combines date-added decay with the starvation boost.
	Recency float64 `json:"recency"`

	// GenreDiversity penalizes recently repeated primary genres.
	GenreDiversity float64 `json:"genre_diversity"`

	// ArtistDiversity penalizes recently repeated artists.
	ArtistDiversity float64 `json:"artist_diversity"`

	// Final is the combined weight after adjustments, floored at MinWeight.
	Final float64 `json:"final"`
}

// MinWeight is the floor applied to every combined weight so that each album
// retains a nonzero selection probability.
const MinWeight = 0.01

// WeightRow is one precomputed cache row in the current refresh epoch.
type WeightRow struct {
	// AlbumID identifies the album this row scores.
	AlbumID int64 `json:"album_id"`

	// Factors is the full weight breakdown for the album.
	Factors WeightFactors `json:"factors"`

	// ComputedAt is when this row was computed.
	ComputedAt time.Time `json:"computed_at"`

	// TimesServed counts how often this row was drawn within its epoch.
	TimesServed int `json:"times_served"`

	// LastServed is when this row was last drawn.
	LastServed time.Time `json:"last_served,omitempty"`
}

// HistoryEntry captures one served selection at selection time. Attributes
// are snapshotted, not joined live later.
type HistoryEntry struct {
	// AlbumID identifies the selected album.
	AlbumID int64 `json:"album_id"`

	// Timestamp is when the selection was served.
	Timestamp time.Time `json:"timestamp"`

	// Genres is the album's genre list at selection time.
	Genres []string `json:"genres,omitempty"`

	// Artist is the album's artist at selection time.
	Artist string `json:"artist,omitempty"`

	// Rating is the album's rating at selection time.
	Rating int `json:"rating"`

	// PlayCount is the album's play count at selection time.
	PlayCount int `json:"play_count"`

	// SessionID identifies the requesting session.
	SessionID string `json:"session_id,omitempty"`

	// Feedback is the attached user reaction, nil until recorded.
	Feedback *Feedback `json:"feedback,omitempty"`

	// Factors is the weight breakdown used for the draw, when available.
	Factors *WeightFactors `json:"factors,omitempty"`
}

// PrimaryGenre returns the first genre of the entry, or an empty string.
func (h *HistoryEntry) PrimaryGenre() string {
	if len(h.Genres) == 0 {
		return ""
	}
	return h.Genres[0]
}

// Selection is the result of one successful draw.
type Selection struct {
	// Album is the selected album snapshot.
	Album AlbumSnapshot `json:"album"`

	// Factors is the weight breakdown behind the draw. Zero-valued when the
	// draw fell back to uniform selection.
	Factors WeightFactors `json:"factors"`

	// SessionID is the session the selection belongs to.
	SessionID string `json:"session_id"`

	// Fallback indicates the weighted cache was empty and the draw was
	// uniform over the unfiltered collection.
	Fallback bool `json:"fallback"`

	// SelectedAt is when the draw happened.
	SelectedAt time.Time `json:"selected_at"`
}

// SelectOptions controls a single SelectRandom call.
type SelectOptions struct {
	// SessionID groups selections and feedback; generated when empty.
	SessionID string

	// RecordPlay increments the collaborator's play counter for the selected
	// album. Serving an album is not automatically a play.
	RecordPlay bool
}

// Stats is the engine's observability blob.
type Stats struct {
	// TotalSelections counts all successful selections since startup.
	TotalSelections int64 `json:"total_selections"`

	// FallbackSelections counts draws served by the uniform fallback path.
	FallbackSelections int64 `json:"fallback_selections"`

	// AvgResponseTimeMS is an exponential moving average of selection latency.
	AvgResponseTimeMS float64 `json:"avg_response_time_ms"`

	// SatisfactionScore is the EMA of positive feedback (observability only).
	SatisfactionScore float64 `json:"satisfaction_score"`

	// CachedAlbums is the number of rows in the current weight cache epoch.
	CachedAlbums int `json:"cached_albums"`

	// AvgWeight, MaxWeight and MinWeight describe the epoch's distribution.
	AvgWeight float64 `json:"avg_weight"`
	MaxWeight float64 `json:"max_weight"`
	MinWeight float64 `json:"min_weight"`

	// HistorySize is the number of entries in the in-memory history.
	HistorySize int `json:"history_size"`

	// LastRefresh is when the weight cache was last rebuilt.
	LastRefresh time.Time `json:"last_refresh"`

	// RefreshCount counts completed refresh cycles.
	RefreshCount int64 `json:"refresh_count"`
}

// Library is the collaborator persistence contract the engine depends on.
// Implementations live outside the core; the engine only reads snapshots and
// appends to the selection log.
type Library interface {
	// ListAlbums returns a snapshot of the full collection.
	ListAlbums(ctx context.Context) ([]AlbumSnapshot, error)

	// RecordPlay increments the play counter and last-played timestamp.
	RecordPlay(ctx context.Context, albumID int64) error

	// AppendSelection appends one entry to the durable selection log.
	AppendSelection(ctx context.Context, entry HistoryEntry) error

	// AttachFeedback attaches feedback to the most recent entry for the
	// album+session pair that has no feedback yet.
	AttachFeedback(ctx context.Context, albumID int64, sessionID string, fb Feedback) error

	// RecentSelections returns log entries newer than since, newest first,
	// capped at limit. A limit of zero or less means no cap.
	RecentSelections(ctx context.Context, since time.Time, limit int) ([]HistoryEntry, error)
}
