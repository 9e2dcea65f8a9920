package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/medassist/medassist-api/llm"
)

const (
	maxChatTurns = 40
	maxTurnChars = 4000
)

// Chat proxies the assistant conversation to the LLM provider
type Chat struct {
	LLM llm.Generator
}

// ChatRequest is the conversation so far, oldest turn first. The last turn
// must come from the user.
type ChatRequest struct {
	Messages []llm.Turn `json:"messages"`
}

// ChatResponse is rendered by the app as the next bot message. Error is set
// when Reply explains a failure; Retry offers the retry action.
type ChatResponse struct {
	Reply string `json:"reply"`
	Error string `json:"error,omitempty"`
	Retry bool   `json:"retry"`
}

// ChatHandler answers a conversation. Provider failures still answer 200 so
// the app can show them inline; only malformed requests are rejected.
func (c Chat) ChatHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerID(w, r); !ok {
		return
	}

	var req ChatRequest
	if err := decodeBody(w, r, &req, maxImageBodyBytes); err != nil {
		if !tooLargeStatus(w, err) {
			writeMessage(w, http.StatusBadRequest, "Invalid JSON format")
		}
		return
	}
	if msg := validateConversation(req.Messages); msg != "" {
		writeMessage(w, http.StatusBadRequest, msg)
		return
	}

	reply, err := c.LLM.Generate(r.Context(), req.Messages)
	if err != nil {
		if errors.Is(err, llm.ErrEmptyConversation) {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		zap.S().Warnw("chat generation failed", "error", err)
		writeJSON(w, http.StatusOK, ChatResponse{
			Reply: llm.UserMessage(err),
			Error: err.Error(),
			Retry: llm.Retryable(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{Reply: reply})
}

// GreetingHandler returns the assistant's opening message
func (c Chat) GreetingHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ChatResponse{Reply: llm.Greeting})
}

func validateConversation(turns []llm.Turn) string {
	if len(turns) == 0 {
		return "messages are required"
	}
	if len(turns) > maxChatTurns {
		return "conversation is too long, please start a new chat"
	}
	for _, t := range turns {
		if t.Role != llm.RoleUser && t.Role != llm.RoleModel {
			return "message role must be user or model"
		}
		if len(t.Text) > maxTurnChars {
			return "message is too long"
		}
		if strings.TrimSpace(t.Text) == "" && t.Image == nil {
			return "messages cannot be empty"
		}
		if t.Image != nil && (!strings.HasPrefix(t.Image.MimeType, "image/") || t.Image.Data == "") {
			return "image must be base64 data with an image mimeType"
		}
	}
	return ""
}
