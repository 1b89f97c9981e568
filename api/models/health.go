package models

type BotStatus string

const (
	BotConnected    BotStatus = "connected"
	BotDisconnected BotStatus = "disconnected"
)

type HealthResponse struct {
	Status string    `json:"status"`
	Bot    BotStatus `json:"bot"`
}

func NewHealthResponse(connected bool) HealthResponse {
	status := BotDisconnected
	if connected {
		status = BotConnected
	}
	return HealthResponse{Status: "ok", Bot: status}
}

type ServiceDescriptor struct {
	Status    string            `json:"status"`
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
