// Package analytics provides usage event capture and processing.
package analytics

import "fmt"

const (
	maxEngineLength      = 32
	maxContentTypeLength = 100
	maxLanguageLength    = 16
)

// ValidateUsageEventPayload validates usage event payload fields.
func ValidateUsageEventPayload(payload UsageEventPayload) error {
	if payload.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if payload.Engine == "" {
		return fmt.Errorf("engine is required")
	}
	if len(payload.Engine) > maxEngineLength {
		return fmt.Errorf("engine too long")
	}
	if payload.ContentType == "" {
		return fmt.Errorf("content_type is required")
	}
	if len(payload.ContentType) > maxContentTypeLength {
		return fmt.Errorf("content_type too long")
	}
	// The API passes language through verbatim, so the stream must
	// accept whatever the generation accepted; only bound the size.
	if payload.Language == "" {
		return fmt.Errorf("language is required")
	}
	if len(payload.Language) > maxLanguageLength {
		return fmt.Errorf("language too long")
	}
	if payload.GeneratedAt <= 0 {
		return fmt.Errorf("generated_at must be set")
	}
	return nil
}
