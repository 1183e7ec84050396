package controllers

import (
	"net/http"

	"github.com/angelmondragon/foodbridge-backend/api/responses"
	"github.com/angelmondragon/foodbridge-backend/api/validators"
	"github.com/angelmondragon/foodbridge-backend/internal/foodai"
	"github.com/angelmondragon/foodbridge-backend/pkg/logger"
)

type analyzeImageBody struct {
	Image string `json:"image" validate:"required"`
}

// AnalyzeFoodImage drafts listing fields from a photo. The result is a
// suggestion only; nothing is stored.
func AnalyzeFoodImage(svc foodai.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body analyzeImageBody
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		analysis, err := svc.AnalyzeFoodImage(r.Context(), body.Image)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, analysis)
	}
}
