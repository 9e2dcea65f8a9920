// Package llm proxies chat requests to Gemini through the genai SDK so the
// provider key never leaves the server.
package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	// RoleUser marks turns written by the person chatting
	RoleUser = genai.RoleUser
	// RoleModel marks turns produced by the assistant
	RoleModel = genai.RoleModel

	// Greeting is the assistant's opening message
	Greeting = "Hello! I'm MedAssist, your health assistant. I can provide general medical information and guidance. What health question can I help you with today?"
	// FallbackReply is returned when the provider answers without any text
	FallbackReply = "I'm sorry, I couldn't process your medical question. Could you rephrase it?"

	// DefaultModel is used when no model is configured
	DefaultModel = "gemini-2.0-flash"

	medicalPreamble = "You are MedAssist, a medical AI assistant that provides helpful, accurate, and ethical medical information. " +
		"You clearly state you're not a replacement for professional medical advice. " +
		"You ask clarifying questions if symptoms or concerns aren't clear. " +
		"You focus exclusively on health and medical topics and politely redirect non-medical questions to health topics instead. " +
		"You respond in a compassionate manner appropriate for medical discussions. Keep responses concise.\n\nUser query: "

	defaultTimeout = 30 * time.Second
)

// ErrEmptyConversation is returned when there is no user turn to answer
var ErrEmptyConversation = errors.New("conversation must end with a user message")

// InlineImage is base64 image data attached to a turn
type InlineImage struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Turn is one message of the conversation
type Turn struct {
	Role  string       `json:"role"`
	Text  string       `json:"text"`
	Image *InlineImage `json:"image,omitempty"`
}

// go generate: mockery --name Generator

// Generator produces the assistant's reply to a conversation
type Generator interface {
	Generate(ctx context.Context, turns []Turn) (string, error)
}

// Client calls generateContent on a Gemini model
type Client struct {
	Model   string
	Timeout time.Duration

	genai   *genai.Client
	initErr error
}

// NewClient returns a client with an explicit upper bound on every call.
// An empty baseURL uses the SDK's default endpoint. A client that could not
// be set up, for instance without an API key, fails every Generate call as
// unavailable.
func NewClient(baseURL, model, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if model == "" {
		model = DefaultModel
	}
	gc, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		zap.S().Warnw("llm client is not configured", "error", err)
	}
	return &Client{
		Model:   model,
		Timeout: timeout,
		genai:   gc,
		initErr: err,
	}
}

// Generate sends the conversation and returns the first candidate's text.
// The medical preamble is prefixed to the latest user turn only.
func (c *Client) Generate(ctx context.Context, turns []Turn) (string, error) {
	if len(turns) == 0 || turns[len(turns)-1].Role != RoleUser {
		return "", ErrEmptyConversation
	}
	if c.initErr != nil || c.genai == nil {
		return "", &APIError{Kind: KindUnavailable, Err: c.initErr}
	}
	contents, err := buildContents(turns)
	if err != nil {
		return "", &APIError{Kind: KindBadRequest, Err: err}
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.genai.Models.GenerateContent(ctx, c.Model, contents, generationConfig())
	if err != nil {
		return "", classifyError(ctx, err, time.Since(start))
	}
	zap.S().Debugw("llm reply received", "duration", time.Since(start), "candidates", len(resp.Candidates))

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return FallbackReply, nil
	}
	return text, nil
}

func generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.2),
		TopP:            genai.Ptr[float32](0.8),
		TopK:            genai.Ptr[float32](40),
		MaxOutputTokens: 800,
	}
}

func buildContents(turns []Turn) ([]*genai.Content, error) {
	lastUser := -1
	for i, t := range turns {
		if t.Role == RoleUser {
			lastUser = i
		}
	}

	contents := make([]*genai.Content, 0, len(turns))
	for i, t := range turns {
		role := genai.Role(RoleUser)
		if t.Role == RoleModel {
			role = RoleModel
		}
		text := t.Text
		if i == lastUser {
			text = medicalPreamble + text
		}
		parts := []*genai.Part{genai.NewPartFromText(text)}
		if t.Image != nil && t.Image.Data != "" {
			data, err := base64.StdEncoding.DecodeString(t.Image.Data)
			if err != nil {
				return nil, fmt.Errorf("image data is not base64: %w", err)
			}
			parts = append(parts, genai.NewPartFromBytes(data, t.Image.MimeType))
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}
	return contents, nil
}

func classifyError(ctx context.Context, err error, elapsed time.Duration) *APIError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		zap.S().Warnw("llm provider returned an error",
			"status", apiErr.Code,
			"duration", elapsed,
			"message", apiErr.Message)
		return &APIError{Kind: kindForStatus(apiErr.Code), Status: apiErr.Code, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &APIError{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &APIError{Kind: KindTimeout, Err: err}
	}
	return &APIError{Kind: KindNetwork, Err: err}
}
