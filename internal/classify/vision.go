package classify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// visionPrompt asks a multimodal model for the same JSON the HTTP backend returns.
const visionPrompt = `You are the meal checker for a wellness pet app. Look at the photo and reply with only a JSON object:
{"foodType": "<short name of the dish>", "confidence": <0..1>, "calories": <estimated kcal>, "nutritionScore": <0..10, 10 = very healthy>}
If the photo shows no food, use "foodType": "not food" and "nutritionScore": 0.`

// visionProvider abstracts a multimodal model API (Claude, Gemini).
type visionProvider interface {
	Describe(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

// visionClassifier classifies photos by asking a multimodal model.
type visionClassifier struct {
	provider visionProvider
}

func (v *visionClassifier) Classify(ctx context.Context, image []byte) (Classification, error) {
	if len(image) == 0 {
		return Classification{}, fmt.Errorf("classify: empty image")
	}

	text, err := v.provider.Describe(ctx, visionPrompt, image, http.DetectContentType(image))
	if err != nil {
		slog.Error("classify: model API error", "err", err)
		return Classification{}, fmt.Errorf("model API error: %w", err)
	}

	c, err := Parse([]byte(text))
	if err != nil {
		slog.Warn("classify: unusable model reply", "err", err)
		return Classification{}, err
	}
	return c, nil
}
