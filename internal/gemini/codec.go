package gemini

import (
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// ErrNoImage indicates a transport-level successful model call whose response
// carried no inline image data. Callers surface this as a generation failure;
// it is never retried.
var ErrNoImage = errors.New("model response contains no image payload")

// imageFromResponse scans the response parts in order and returns the bytes
// of the first part carrying inline image data. Pure transform, no staging.
func imageFromResponse(resp *genai.GenerateContentResponse) ([]byte, error) {
	if resp == nil {
		return nil, ErrNoImage
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reason := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reason = resp.PromptFeedback.BlockReasonMessage
		}
		return nil, fmt.Errorf("%w: blocked by safety filter: %s", ErrNoImage, reason)
	}

	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}

	return nil, ErrNoImage
}
