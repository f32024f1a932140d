package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

var (
	// ErrNoProvider means no classifier backend is configured.
	ErrNoProvider = errors.New("classify: no provider configured")
	// ErrRateLimited is returned by a limited classifier when its window is full.
	ErrRateLimited = errors.New("classify: too many requests")
	// ErrEmptyResult means the backend answered but named no food.
	ErrEmptyResult = errors.New("classify: empty classification")
)

// Classifier labels a meal photo. Failures are returned to the caller, who
// decides whether to ask the user to retry; nothing here retries on its own.
type Classifier interface {
	Classify(ctx context.Context, image []byte) (Classification, error)
}

// Classification is the result for one photo. Backends answer either with a
// bare label or with the full nutrition breakdown.
type Classification struct {
	Label          string  `json:"classification"`
	FoodType       string  `json:"foodType"`
	Confidence     float64 `json:"confidence"`
	Calories       float64 `json:"calories"`
	NutritionScore float64 `json:"nutritionScore"` // 0–10
	HasScore       bool    `json:"-"`
}

type wireClassification struct {
	Classification      string   `json:"classification"`
	FoodType            string   `json:"foodType"`
	FoodTypeSnake       string   `json:"food_type"`
	Confidence          float64  `json:"confidence"`
	Calories            float64  `json:"calories"`
	NutritionScore      *float64 `json:"nutritionScore"`
	NutritionScoreSnake *float64 `json:"nutrition_score"`
}

// Parse decodes either backend shape. Any text around the JSON object is
// ignored, since language models like to wrap it in prose or fences.
func Parse(data []byte) (Classification, error) {
	s := string(data)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return Classification{}, fmt.Errorf("classify: no JSON object in response %q", truncate(s, 80))
	}

	var w wireClassification
	if err := json.Unmarshal([]byte(s[start:end+1]), &w); err != nil {
		return Classification{}, fmt.Errorf("classify: decode response: %w", err)
	}

	c := Classification{
		Label:      w.Classification,
		FoodType:   w.FoodType,
		Confidence: w.Confidence,
		Calories:   w.Calories,
	}
	if c.FoodType == "" {
		c.FoodType = w.FoodTypeSnake
	}
	if c.Label == "" {
		c.Label = c.FoodType
	}
	switch {
	case w.NutritionScore != nil:
		c.NutritionScore, c.HasScore = *w.NutritionScore, true
	case w.NutritionScoreSnake != nil:
		c.NutritionScore, c.HasScore = *w.NutritionScoreSnake, true
	}

	if c.Label == "" && !c.HasScore {
		return Classification{}, ErrEmptyResult
	}
	return c, nil
}

// Healthy judges the meal from its nutrition score when there is one, and
// from the label otherwise.
func (c Classification) Healthy() bool {
	if c.HasScore {
		return c.NutritionScore >= 5
	}
	label := strings.ToLower(c.Label)
	if strings.Contains(label, "unhealthy") || strings.Contains(label, "junk") {
		return false
	}
	return strings.Contains(label, "healthy")
}

// Summary is a one-line description for chat output.
func (c Classification) Summary() string {
	label := c.Label
	if label == "" {
		label = "mystery meal"
	}
	if !c.HasScore {
		return label
	}
	return fmt.Sprintf("%s (%.0f kcal, score %.1f/10, %.0f%% sure)",
		label, c.Calories, c.NutritionScore, c.Confidence*100)
}

// Config selects and tunes a classifier backend.
type Config struct {
	// Which backend to force ("http", "claude", "gemini", or "" to auto-detect).
	Provider string

	HTTPURL     string
	HTTPTimeout time.Duration

	ClaudeAPIKey string
	ClaudeModel  string

	GeminiAPIKey string
	GeminiModel  string

	MaxTokens  int64
	RateLimit  int // 0 disables limiting
	RateWindow time.Duration
}

// New builds the configured classifier. It returns ErrNoProvider when
// nothing usable is configured.
func New(ctx context.Context, cfg Config) (Classifier, error) {
	pick := cfg.Provider
	if pick == "" {
		switch {
		case cfg.HTTPURL != "":
			pick = "http"
		case cfg.ClaudeAPIKey != "":
			pick = "claude"
		case cfg.GeminiAPIKey != "":
			pick = "gemini"
		default:
			return nil, ErrNoProvider
		}
	}

	var c Classifier
	switch pick {
	case "http":
		if cfg.HTTPURL == "" {
			return nil, fmt.Errorf("%w: provider http needs CLASSIFIER_URL", ErrNoProvider)
		}
		slog.Info("classify: using http backend", "url", cfg.HTTPURL)
		c = NewHTTP(cfg.HTTPURL, cfg.HTTPTimeout)
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			return nil, fmt.Errorf("%w: provider claude needs ANTHROPIC_API_KEY", ErrNoProvider)
		}
		slog.Info("classify: using claude", "model", cfg.ClaudeModel)
		c = &visionClassifier{provider: newClaudeProvider(cfg.ClaudeAPIKey, cfg.ClaudeModel, cfg.MaxTokens)}
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("%w: provider gemini needs GOOGLE_API_KEY", ErrNoProvider)
		}
		slog.Info("classify: using gemini", "model", cfg.GeminiModel)
		p, err := newGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.MaxTokens)
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		c = &visionClassifier{provider: p}
	default:
		return nil, fmt.Errorf("classify: unknown provider %q", pick)
	}

	if cfg.RateLimit > 0 {
		c = Limit(c, cfg.RateLimit, cfg.RateWindow)
	}
	return c, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
