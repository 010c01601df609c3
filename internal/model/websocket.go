package model

// WebSocket message types
const (
	WSMessageTypeStatus   = "status"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// WSMessage is the generic message envelope
type WSMessage struct {
	Type string `json:"type"`
}

// WSStatusMessage notifies subscribers of a status change
type WSStatusMessage struct {
	Type   string    `json:"type"`
	JobID  string    `json:"jobId"`
	Status JobStatus `json:"status"`
}

// WSCompleteMessage carries the final analysis text
type WSCompleteMessage struct {
	Type   string `json:"type"`
	JobID  string `json:"jobId"`
	Result string `json:"result"`
}

// WSErrorMessage carries a classified failure
type WSErrorMessage struct {
	Type  string  `json:"type"`
	JobID string  `json:"jobId"`
	Error WSError `json:"error"`
}

type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
