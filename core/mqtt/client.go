// Package mqtt defines the message contract of the MQTT clearing loop:
// clients publish a Request on the request topic and receive the Response on
// the result topic. infra/mqtt provides the Paho implementation.
package mqtt

import (
	"github.com/kilianp07/gridmatch/core/batch"
	"github.com/kilianp07/gridmatch/core/model"
)

// Request asks for one batch of order books to be cleared.
type Request struct {
	RequestID string `json:"request_id"`
	// Strategy overrides the configured strategy when set.
	Strategy string             `json:"strategy,omitempty"`
	Data     model.MatchingData `json:"data"`
}

// Response carries the outcome of a Request.
type Response struct {
	RequestID       string                 `json:"request_id"`
	RunID           string                 `json:"run_id,omitempty"`
	Strategy        string                 `json:"strategy,omitempty"`
	Recommendations []model.Recommendation `json:"recommendations"`
	Rejected        []batch.RejectedOrder  `json:"rejected,omitempty"`
	Error           string                 `json:"error,omitempty"`
}

// Client publishes responses and delivers incoming requests to a handler.
type Client interface {
	// Publish sends the response on the result topic.
	Publish(res Response) error
	// Disconnect closes the connection.
	Disconnect()
}

// Handler processes one request. It must be safe for concurrent use.
type Handler func(req Request) Response
