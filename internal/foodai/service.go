// Package foodai turns a photo of surplus food into a draft listing.
package foodai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/foodbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodbridge-backend/pkg/errors"
	"github.com/angelmondragon/foodbridge-backend/pkg/openai"
)

const (
	minBase64Length = 100
	jpegDataPrefix  = "data:image/jpeg;base64,"
	maxTokens       = 500
)

const systemPrompt = `You analyze photos of surplus food offered for donation.
Reply with a single JSON object with these keys:
"title" (short name of the food),
"description" (one or two sentences: contents, condition, packaging),
"foodType" (one of: prepared, produce, bakery, canned, dairy, other),
"quantity" (a positive number estimate),
"quantityUnit" (one of: servings, pounds, items, boxes),
"serves" (how many people it could feed, as text).`

const userPrompt = "Describe this food so it can be listed for donation to a shelter."

// Analysis is the normalized draft returned to the client.
type Analysis struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	FoodType     enums.FoodType     `json:"foodType"`
	Quantity     decimal.Decimal    `json:"quantity"`
	QuantityUnit enums.QuantityUnit `json:"quantityUnit"`
	Serves       string             `json:"serves"`
}

type completer interface {
	CompleteVision(ctx context.Context, prompt openai.VisionPrompt) (string, error)
}

type Service interface {
	AnalyzeFoodImage(ctx context.Context, image string) (*Analysis, error)
}

type service struct {
	client completer
}

// NewService accepts a nil client; every call then reports the feature as
// unconfigured.
func NewService(client completer) Service {
	return &service{client: client}
}

func (s *service) AnalyzeFoodImage(ctx context.Context, image string) (*Analysis, error) {
	dataURL, err := normalizeImage(image)
	if err != nil {
		return nil, err
	}
	if s.client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "image analysis is not configured")
	}

	content, err := s.client.CompleteVision(ctx, openai.VisionPrompt{
		System:    systemPrompt,
		Text:      userPrompt,
		ImageURL:  dataURL,
		JSON:      true,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "image analysis failed")
	}
	return parseAnalysis(content)
}

// normalizeImage accepts a data URL or bare base64 and returns a data URL.
func normalizeImage(image string) (string, error) {
	trimmed := strings.TrimSpace(image)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "image is required")
	}
	payload := trimmed
	if strings.HasPrefix(trimmed, "data:") {
		idx := strings.Index(trimmed, ",")
		if idx < 0 {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "malformed image data url")
		}
		payload = trimmed[idx+1:]
	} else {
		trimmed = jpegDataPrefix + trimmed
	}
	if len(payload) < minBase64Length {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "image data is too short")
	}
	return trimmed, nil
}

type rawAnalysis struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	FoodType     string          `json:"foodType"`
	Quantity     json.RawMessage `json:"quantity"`
	QuantityUnit string          `json:"quantityUnit"`
	Serves       json.RawMessage `json:"serves"`
}

func parseAnalysis(content string) (*Analysis, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &raw); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "image analysis returned invalid json")
	}

	out := &Analysis{
		Title:        strings.TrimSpace(raw.Title),
		Description:  strings.TrimSpace(raw.Description),
		FoodType:     enums.FoodTypeOther,
		Quantity:     decimal.NewFromInt(1),
		QuantityUnit: enums.QuantityUnitServings,
		Serves:       looseString(raw.Serves),
	}
	if ft, err := enums.ParseFoodType(strings.ToLower(strings.TrimSpace(raw.FoodType))); err == nil {
		out.FoodType = ft
	}
	if unit, err := enums.ParseQuantityUnit(strings.ToLower(strings.TrimSpace(raw.QuantityUnit))); err == nil {
		out.QuantityUnit = unit
	}
	if qty, err := looseDecimal(raw.Quantity); err == nil && qty.IsPositive() {
		out.Quantity = qty
	}
	return out, nil
}

// looseDecimal reads a JSON number or numeric string.
func looseDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Zero, errors.New("missing")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return decimal.NewFromString(strings.TrimSpace(s))
	}
	return decimal.NewFromString(string(raw))
}

func looseString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}
