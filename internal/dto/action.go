package dto

import "time"

// AgentRequest is the JSON body for POST /process.
type AgentRequest struct {
	// A name from the agent request
	Name string `json:"name" example:"Neo" default:"Neo" maxLength:"256" binding:"required"`
}

// AgentResponse is what the agent receives back.
type AgentResponse struct {
	// A response to the agent
	Message string `json:"message" example:"<img src=\"data:image/png;base64,iVBORw0KGgo...\">"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type InvocationResponse struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ListInvocationsResponse struct {
	Items []InvocationResponse `json:"items"`
}
