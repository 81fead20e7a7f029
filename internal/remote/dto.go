package remote

// collectionDTO is the payload of GET /collections/{id}. UpdatedAt bumps
// whenever an administrator edits the collection's contents.
type collectionDTO struct {
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	UpdatedAt int64  `json:"updatedAt"`
}

// trackListResponse is the envelope for GET /collections/{id}/tracks
type trackListResponse struct {
	CollectionID string     `json:"collectionId"`
	UpdatedAt    int64      `json:"updatedAt,omitempty"`
	Items        []trackDTO `json:"items"`
}

// trackDTO is one row of a flat track playlist
type trackDTO struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Position        int    `json:"position"`
	MediaURL        string `json:"mediaUrl"`
	DurationSeconds int    `json:"durationSeconds"`
	DripDelayDays   int    `json:"dripDelayDays"`
	CoverURL        string `json:"coverUrl,omitempty"`
}

// moduleListResponse is the envelope for GET /collections/{id}/modules
type moduleListResponse struct {
	CollectionID string           `json:"collectionId"`
	UpdatedAt    int64            `json:"updatedAt,omitempty"`
	Items        []moduleEntryDTO `json:"items"`
}

// moduleEntryDTO is one entry of a module collection. Type is one of
// "audio", "video", "pdf", "link". Video entries may carry an audioUrl
// pointing to an audio rendition.
type moduleEntryDTO struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Title           string `json:"title"`
	Position        int    `json:"position"`
	MediaURL        string `json:"mediaUrl,omitempty"`
	AudioURL        string `json:"audioUrl,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
	DripDelayDays   int    `json:"dripDelayDays"`
	CoverURL        string `json:"coverUrl,omitempty"`
}

// enrollmentDTO is the payload of GET /learners/{id}/enrollments/{cid}.
// Dates are RFC 3339; firstSessionDate is preferred over startDate as the
// drip anchor when both are present.
type enrollmentDTO struct {
	FirstSessionDate string `json:"firstSessionDate,omitempty"`
	StartDate        string `json:"startDate,omitempty"`
	DripOffsetDays   int    `json:"dripOffsetDays"`
}

// progressDTO doubles as the PUT request body and the GET response payload
type progressDTO struct {
	PositionSeconds int  `json:"positionSeconds"`
	Completed       bool `json:"completed"`
}

// bookmarkListResponse is the envelope for GET .../bookmarks
type bookmarkListResponse struct {
	Items []bookmarkDTO `json:"items"`
}

// bookmarkDTO doubles as the POST request body and response payload
type bookmarkDTO struct {
	ID              string `json:"id"`
	PositionSeconds int    `json:"positionSeconds"`
	Label           string `json:"label,omitempty"`
	CreatedAt       string `json:"createdAt,omitempty"`
}
