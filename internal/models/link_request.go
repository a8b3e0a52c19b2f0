package models

// CreateLinkRequest represents the request body for creating a short link
type CreateLinkRequest struct {
	URL     string  `json:"url" binding:"required,url"` // Gin validation: required and must be a valid absolute URL
	Title   string  `json:"title,omitempty"`
	ShortID *string `json:"short_id,omitempty"` // Optional custom short ID
}
