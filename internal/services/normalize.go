package services

import (
	"encoding/json"
	"fmt"

	"corpchat-backend/internal/logx"
	"corpchat-backend/internal/models"
)

// Fallback texts returned in place of a reply when the body cannot be used.
const (
	ParseErrorText   = "Error parsing AI response."
	NoResponseText   = "Unable to parse AI response"
	BlockedReplyText = "Prompt blocked due to security configurations"
)

// completionBody covers every layout the gateway has been seen to return:
// OpenAI chat completions, the Workers AI native shape and the Cloudflare
// REST result wrapper.
type completionBody struct {
	Response json.RawMessage `json:"response"`
	Choices  []struct {
		Message *struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Result *struct {
		Response json.RawMessage `json:"response"`
	} `json:"result"`
}

// ExtractText pulls the generated text for provider out of a successful
// upstream body. Invalid JSON never fails the request; it yields ParseErrorText.
func ExtractText(provider models.Provider, body []byte) (string, error) {
	var parsed completionBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		logx.Log.Error().Err(err).Str("provider", provider.String()).Msg("Error parsing AI response")
		return ParseErrorText, nil
	}

	switch provider {
	case models.ProviderOpenAI:
		if text, ok := parsed.firstChoice(); ok {
			return text, nil
		}
		return "", fmt.Errorf("%w: missing choices[0].message.content", ErrUnparseableResponse)
	case models.ProviderWorkersAI:
		// First non-empty candidate wins.
		if text, _ := stringField(parsed.Response); text != "" {
			return text, nil
		}
		if text, _ := parsed.firstChoice(); text != "" {
			return text, nil
		}
		if parsed.Result != nil {
			if text, _ := stringField(parsed.Result.Response); text != "" {
				return text, nil
			}
		}
		return NoResponseText, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}
}

func (b *completionBody) firstChoice() (string, bool) {
	if len(b.Choices) == 0 || b.Choices[0].Message == nil {
		return "", false
	}
	return stringField(b.Choices[0].Message.Content)
}

// stringField decodes raw as a JSON string. Absent, null and non-string
// values report false.
func stringField(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
