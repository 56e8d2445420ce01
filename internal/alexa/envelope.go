// Package alexa is the minimal binding to the voice platform's
// request/response JSON. Certificate validation and the slot grammar
// live on the platform side and are out of scope here.
package alexa

import (
	"encoding/json"
	"fmt"
	"io"
)

// Request types the platform sends.
const (
	TypeLaunchRequest       = "LaunchRequest"
	TypeIntentRequest       = "IntentRequest"
	TypeSessionEndedRequest = "SessionEndedRequest"
)

type RequestEnvelope struct {
	Version string  `json:"version"`
	Session Session `json:"session"`
	Request Request `json:"request"`
}

type Session struct {
	New        bool              `json:"new"`
	SessionID  string            `json:"sessionId"`
	Attributes map[string]string `json:"attributes"`
	User       User              `json:"user"`
}

type User struct {
	UserID      string `json:"userId"`
	AccessToken string `json:"accessToken"`
}

type Request struct {
	Type      string  `json:"type"`
	RequestID string  `json:"requestId"`
	Intent    *Intent `json:"intent,omitempty"`
}

type Intent struct {
	Name  string          `json:"name"`
	Slots map[string]Slot `json:"slots"`
}

type Slot struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// DecodeRequest parses one inbound envelope.
func DecodeRequest(r io.Reader) (*RequestEnvelope, error) {
	var env RequestEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode request envelope: %w", err)
	}
	return &env, nil
}

// IntentName returns the intent name, or "" for non-intent requests.
func (e *RequestEnvelope) IntentName() string {
	if e.Request.Intent == nil {
		return ""
	}
	return e.Request.Intent.Name
}

// SlotValue returns the value of a named slot, or "" when absent.
func (e *RequestEnvelope) SlotValue(name string) string {
	if e.Request.Intent == nil {
		return ""
	}
	return e.Request.Intent.Slots[name].Value
}

type ResponseEnvelope struct {
	Version           string            `json:"version"`
	SessionAttributes map[string]string `json:"sessionAttributes"`
	Response          Response          `json:"response"`
}

type Response struct {
	OutputSpeech     *OutputSpeech `json:"outputSpeech,omitempty"`
	Card             *Card         `json:"card,omitempty"`
	ShouldEndSession bool          `json:"shouldEndSession"`
}

type OutputSpeech struct {
	Type string `json:"type"`
	SSML string `json:"ssml"`
}

type Card struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// NewResponse builds an envelope, wrapping any speech as SSML.
func NewResponse(speech string, endSession bool, attrs map[string]string) ResponseEnvelope {
	if attrs == nil {
		attrs = map[string]string{}
	}
	env := ResponseEnvelope{
		Version:           "1.0",
		SessionAttributes: attrs,
		Response:          Response{ShouldEndSession: endSession},
	}
	if speech != "" {
		env.Response.OutputSpeech = &OutputSpeech{
			Type: "SSML",
			SSML: "<speak>" + speech + "</speak>",
		}
	}
	return env
}

// WithCard attaches a simple card to the response.
func (e ResponseEnvelope) WithCard(title, content string) ResponseEnvelope {
	e.Response.Card = &Card{Type: "Simple", Title: title, Content: content}
	return e
}

// WithLinkAccountCard attaches the card that prompts the companion
// app to start account linking.
func (e ResponseEnvelope) WithLinkAccountCard() ResponseEnvelope {
	e.Response.Card = &Card{Type: "LinkAccount"}
	return e
}
