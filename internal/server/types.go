package server

// HealthResponse is the response for the health endpoint
type HealthResponse struct {
	Status   string `json:"status"`
	Time     string `json:"time"`
	Upstream string `json:"upstream,omitempty"`
}

// InfoResponse is the response for info endpoint
type InfoResponse struct {
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mime_type"`
	Bytes    int64  `json:"bytes"`
	Size     string `json:"size"`
	Pages    int    `json:"pages"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
