package foodai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/foodbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodbridge-backend/pkg/errors"
	"github.com/angelmondragon/foodbridge-backend/pkg/openai"
)

type fakeCompleter struct {
	completeFn func(ctx context.Context, prompt openai.VisionPrompt) (string, error)
}

func (f fakeCompleter) CompleteVision(ctx context.Context, prompt openai.VisionPrompt) (string, error) {
	return f.completeFn(ctx, prompt)
}

var longBase64 = strings.Repeat("QUJD", 40)

func TestAnalyzeNormalizesRawBase64(t *testing.T) {
	var got openai.VisionPrompt
	svc := NewService(fakeCompleter{completeFn: func(_ context.Context, p openai.VisionPrompt) (string, error) {
		got = p
		return `{"title":"Bagels","description":"A dozen bagels","foodType":"Bakery","quantity":12,"quantityUnit":"items","serves":"12 people"}`, nil
	}})

	out, err := svc.AnalyzeFoodImage(context.Background(), longBase64)
	require.NoError(t, err)
	assert.Equal(t, jpegDataPrefix+longBase64, got.ImageURL)
	assert.True(t, got.JSON)
	assert.Equal(t, "Bagels", out.Title)
	assert.Equal(t, enums.FoodTypeBakery, out.FoodType)
	assert.True(t, decimal.NewFromInt(12).Equal(out.Quantity))
	assert.Equal(t, enums.QuantityUnitItems, out.QuantityUnit)
	assert.Equal(t, "12 people", out.Serves)
}

func TestAnalyzeKeepsDataURL(t *testing.T) {
	image := "data:image/png;base64," + longBase64
	svc := NewService(fakeCompleter{completeFn: func(_ context.Context, p openai.VisionPrompt) (string, error) {
		assert.Equal(t, image, p.ImageURL)
		return `{"title":"x"}`, nil
	}})
	_, err := svc.AnalyzeFoodImage(context.Background(), image)
	require.NoError(t, err)
}

func TestAnalyzeAppliesDefaults(t *testing.T) {
	svc := NewService(fakeCompleter{completeFn: func(context.Context, openai.VisionPrompt) (string, error) {
		return "```json\n{\"title\":\"Soup\",\"foodType\":\"soup\",\"quantity\":-3,\"quantityUnit\":\"gallons\",\"serves\":8}\n```", nil
	}})
	out, err := svc.AnalyzeFoodImage(context.Background(), longBase64)
	require.NoError(t, err)
	assert.Equal(t, enums.FoodTypeOther, out.FoodType)
	assert.True(t, decimal.NewFromInt(1).Equal(out.Quantity))
	assert.Equal(t, enums.QuantityUnitServings, out.QuantityUnit)
	assert.Equal(t, "8", out.Serves)
}

func TestAnalyzeAcceptsStringQuantity(t *testing.T) {
	svc := NewService(fakeCompleter{completeFn: func(context.Context, openai.VisionPrompt) (string, error) {
		return `{"quantity":"2.5","quantityUnit":"pounds"}`, nil
	}})
	out, err := svc.AnalyzeFoodImage(context.Background(), longBase64)
	require.NoError(t, err)
	assert.Equal(t, "2.5", out.Quantity.String())
}

func TestAnalyzeRejectsShortImage(t *testing.T) {
	svc := NewService(fakeCompleter{completeFn: func(context.Context, openai.VisionPrompt) (string, error) {
		t.Fatal("model must not be called")
		return "", nil
	}})
	for _, image := range []string{"", "abc", "data:image/jpeg;base64,abc", "data:nocomma"} {
		_, err := svc.AnalyzeFoodImage(context.Background(), image)
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err), image)
	}
}

func TestAnalyzeDependencyFailures(t *testing.T) {
	_, err := NewService(nil).AnalyzeFoodImage(context.Background(), longBase64)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))

	svc := NewService(fakeCompleter{completeFn: func(context.Context, openai.VisionPrompt) (string, error) {
		return "", errors.New("dial tcp: timeout")
	}})
	_, err = svc.AnalyzeFoodImage(context.Background(), longBase64)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))

	svc = NewService(fakeCompleter{completeFn: func(context.Context, openai.VisionPrompt) (string, error) {
		return "I cannot help with that", nil
	}})
	_, err = svc.AnalyzeFoodImage(context.Background(), longBase64)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
}

func TestNilOpenAIClientReportsDependency(t *testing.T) {
	var client *openai.Client
	_, err := NewService(client).AnalyzeFoodImage(context.Background(), longBase64)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
}
