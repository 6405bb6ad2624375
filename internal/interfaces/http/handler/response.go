package handler

import "github.com/carehours/backend/internal/interfaces/http/dto"

// APIResponse represents a generic API response for OpenAPI documentation
// @Description Standard API response wrapper with typed data field
type APIResponse[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
	Meta    *dto.Meta      `json:"meta,omitempty"`
}

// ErrorResponse represents an error API response for OpenAPI documentation
// @Description Standard error response
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// MessageData carries a human readable confirmation
// @Description Confirmation message
type MessageData struct {
	Message string `json:"message"`
}

// PermissionsData lists the grantable permission codes
// @Description Permission catalogue
type PermissionsData struct {
	Permissions []string `json:"permissions"`
}

// DownloadData points at a presigned document URL
// @Description Presigned download link
type DownloadData struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}
