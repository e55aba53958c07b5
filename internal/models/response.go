package models

// ToolResponse is the JSON envelope every tool returns
type ToolResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Succeeded wraps data in a success envelope
func Succeeded(data any) ToolResponse {
	return ToolResponse{Success: true, Data: data}
}

// Failed wraps a message in an error envelope
func Failed(message string) ToolResponse {
	return ToolResponse{Success: false, Error: message}
}
