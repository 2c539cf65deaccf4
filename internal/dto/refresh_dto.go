package dto

import "github.com/google/uuid"

// SynopsisRefreshMessage is the payload published to the refresh topic.
type SynopsisRefreshMessage struct {
	SessionId uuid.UUID `json:"session_id"`
}
