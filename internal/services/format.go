package services

import (
	"encoding/json"
	"strings"

	"parley-backend/internal/models"
)

// FormatMessageContent reshapes stored message content into ordered provider
// parts. Content may be a bare string or a {text, files} object. The text
// part comes first when present, then one part per file in attachment order:
// image files become image_url parts, everything else a generic file part
// carrying the filename and a reference to its content.
//
// The shaping is deterministic and has no side effects.
func FormatMessageContent(raw json.RawMessage) []models.ContentPart {
	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return []models.ContentPart{{Type: models.PartTypeText, Text: plain}}
	}

	var content models.MessageContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil
	}

	var parts []models.ContentPart
	if content.Text != "" {
		parts = append(parts, models.ContentPart{Type: models.PartTypeText, Text: content.Text})
	}

	for _, file := range content.Files {
		if strings.HasPrefix(file.Type, "image/") {
			parts = append(parts, models.ContentPart{
				Type:     models.PartTypeImage,
				ImageURL: &models.ImageRef{URL: file.URL},
			})
			continue
		}
		parts = append(parts, models.ContentPart{
			Type: models.PartTypeFile,
			File: &models.FileRef{Filename: file.Name, FileData: file.URL},
		})
	}

	return parts
}

// FormatMessages flattens stored messages into the provider's schema,
// preserving their order.
func FormatMessages(messages []*models.Message) []models.ProviderMessage {
	out := make([]models.ProviderMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, models.ProviderMessage{
			Role:    msg.Role,
			Content: FormatMessageContent(msg.Content),
		})
	}
	return out
}
