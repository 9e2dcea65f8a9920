package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultExpoPushURL is the Expo push service endpoint
	DefaultExpoPushURL = "https://exp.host/--/api/v2/push/send"
	expoBatchLimit     = 100
)

// go generate: mockery --name Pusher

// Pusher delivers push notifications to device tokens. It returns the tokens
// the push service reported as no longer registered.
type Pusher interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]interface{}) ([]string, error)
}

// ExpoPushMessage represents a single push notification message for the Expo push API
type ExpoPushMessage struct {
	To        string                 `json:"to"`
	Title     string                 `json:"title,omitempty"`
	Body      string                 `json:"body,omitempty"`
	Sound     string                 `json:"sound,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Priority  string                 `json:"priority,omitempty"`
	ChannelID string                 `json:"channelId,omitempty"`
}

type expoTicket struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Details struct {
		Error string `json:"error"`
	} `json:"details"`
}

type expoResponse struct {
	Data []expoTicket `json:"data"`
}

// ExpoSender sends notifications through the Expo push API
type ExpoSender struct {
	URL    string
	Client *http.Client
}

// NewExpoSender returns a sender for the given endpoint, defaulting to Expo's
func NewExpoSender(url string) *ExpoSender {
	if url == "" {
		url = DefaultExpoPushURL
	}
	return &ExpoSender{
		URL:    url,
		Client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Send pushes one message per token. Tokens are batched in groups of 100
// per the Expo API limit; a failed batch does not stop the others.
func (s *ExpoSender) Send(ctx context.Context, tokens []string, title, body string, data map[string]interface{}) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	messages := make([]ExpoPushMessage, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, ExpoPushMessage{
			To:        token,
			Title:     title,
			Body:      body,
			Sound:     "default",
			Data:      data,
			Priority:  "high",
			ChannelID: "default",
		})
	}

	var invalid []string
	var errs []error
	for i := 0; i < len(messages); i += expoBatchLimit {
		end := i + expoBatchLimit
		if end > len(messages) {
			end = len(messages)
		}
		batch := messages[i:end]

		gone, err := s.sendBatch(ctx, batch)
		if err != nil {
			zap.S().Errorw("failed to send Expo push batch", "from", i, "to", end-1, "error", err)
			errs = append(errs, err)
			continue
		}
		invalid = append(invalid, gone...)
	}

	return invalid, errors.Join(errs...)
}

func (s *ExpoSender) sendBatch(ctx context.Context, messages []ExpoPushMessage) ([]string, error) {
	jsonData, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal push messages: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("expo push API returned status %d", resp.StatusCode)
	}

	var parsed expoResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		// delivery was accepted; tickets are informational
		zap.S().Warnw("unreadable Expo push response", "error", err)
		return nil, nil
	}

	var gone []string
	for i, ticket := range parsed.Data {
		if i >= len(messages) {
			break
		}
		if ticket.Status == "error" && ticket.Details.Error == "DeviceNotRegistered" {
			gone = append(gone, messages[i].To)
		}
	}

	zap.S().Infow("sent push notifications via Expo", "count", len(messages), "unregistered", len(gone))
	return gone, nil
}
