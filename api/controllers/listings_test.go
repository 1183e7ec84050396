package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/foodbridge-backend/api/middleware"
	"github.com/angelmondragon/foodbridge-backend/internal/listings"
	"github.com/angelmondragon/foodbridge-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodbridge-backend/pkg/errors"
	"github.com/angelmondragon/foodbridge-backend/pkg/logger"
)

type fakeListings struct {
	listings.Service
	createFn func(ctx context.Context, ownerID uuid.UUID, in listings.CreateInput) (*listings.ListingDTO, error)
	updateFn func(ctx context.Context, ownerID, id uuid.UUID, in listings.UpdateInput) (*listings.ListingDTO, error)
	claimFn  func(ctx context.Context, ownerID, id uuid.UUID) (*listings.ListingDTO, error)
	getFn    func(ctx context.Context, callerID, id uuid.UUID) (*listings.ListingDTO, error)
}

func (f *fakeListings) CreateListing(ctx context.Context, ownerID uuid.UUID, in listings.CreateInput) (*listings.ListingDTO, error) {
	return f.createFn(ctx, ownerID, in)
}

func (f *fakeListings) UpdateListing(ctx context.Context, ownerID, id uuid.UUID, in listings.UpdateInput) (*listings.ListingDTO, error) {
	return f.updateFn(ctx, ownerID, id, in)
}

func (f *fakeListings) ClaimListing(ctx context.Context, ownerID, id uuid.UUID) (*listings.ListingDTO, error) {
	return f.claimFn(ctx, ownerID, id)
}

func (f *fakeListings) GetListing(ctx context.Context, callerID, id uuid.UUID) (*listings.ListingDTO, error) {
	return f.getFn(ctx, callerID, id)
}

func asUser(req *http.Request, id uuid.UUID, userType enums.UserType) *http.Request {
	return req.WithContext(middleware.WithUser(req.Context(), id, userType))
}

func withParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(req.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Error.Code
}

func TestListingCreatePassesSanitizedInput(t *testing.T) {
	owner := uuid.New()
	var got listings.CreateInput
	svc := &fakeListings{createFn: func(_ context.Context, ownerID uuid.UUID, in listings.CreateInput) (*listings.ListingDTO, error) {
		assert.Equal(t, owner, ownerID)
		got = in
		return &listings.ListingDTO{ID: uuid.New(), Title: in.Title, Status: enums.ListingStatusAvailable}, nil
	}}

	body := `{
		"title": "<b>Bagels</b>",
		"food_type": "bakery",
		"quantity": "2.5",
		"quantity_unit": "boxes",
		"expiration_date": "2026-05-02T10:00:00Z",
		"pickup_by_time": "2026-05-01T18:00:00Z",
		"location": "  Rear door  "
	}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/listings", strings.NewReader(body)), owner, enums.UserTypeBusiness)
	rec := httptest.NewRecorder()
	ListingCreate(svc, logger.Nop())(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Bagels", got.Title)
	assert.Equal(t, "Rear door", got.Location)
	assert.Equal(t, "2.5", got.Quantity.String())
	assert.True(t, got.PickupByTime.Equal(time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)))

	var dto listings.ListingDTO
	decodeData(t, rec, &dto)
	assert.Equal(t, "Bagels", dto.Title)
}

func TestListingCreateRejectsBadBodies(t *testing.T) {
	svc := &fakeListings{createFn: func(context.Context, uuid.UUID, listings.CreateInput) (*listings.ListingDTO, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	for name, body := range map[string]string{
		"missing title": `{"food_type":"bakery","quantity_unit":"boxes","location":"x","expiration_date":"2026-05-02T10:00:00Z","pickup_by_time":"2026-05-01T18:00:00Z"}`,
		"unknown field": `{"title":"x","status":"claimed"}`,
	} {
		t.Run(name, func(t *testing.T) {
			req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/listings", strings.NewReader(body)), uuid.New(), enums.UserTypeBusiness)
			rec := httptest.NewRecorder()
			ListingCreate(svc, logger.Nop())(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, string(pkgerrors.CodeValidation), errorCode(t, rec))
		})
	}
}

func TestListingClaimMapsServiceErrors(t *testing.T) {
	listingID := uuid.New()
	cases := map[pkgerrors.Code]int{
		pkgerrors.CodeForbidden:     http.StatusForbidden,
		pkgerrors.CodeNotFound:      http.StatusNotFound,
		pkgerrors.CodeStateConflict: http.StatusConflict,
	}
	for code, status := range cases {
		svc := &fakeListings{claimFn: func(_ context.Context, _, id uuid.UUID) (*listings.ListingDTO, error) {
			assert.Equal(t, listingID, id)
			return nil, pkgerrors.New(code, "nope")
		}}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/"+listingID.String()+"/claim", nil)
		req = withParam(asUser(req, uuid.New(), enums.UserTypeBusiness), "listingId", listingID.String())
		rec := httptest.NewRecorder()
		ListingClaim(svc, logger.Nop())(rec, req)
		assert.Equal(t, status, rec.Code, code)
		assert.Equal(t, string(code), errorCode(t, rec))
	}
}

func TestListingGetRejectsMalformedID(t *testing.T) {
	svc := &fakeListings{getFn: func(context.Context, uuid.UUID, uuid.UUID) (*listings.ListingDTO, error) {
		t.Fatal("service must not be called")
		return nil, nil
	}}
	req := withParam(httptest.NewRequest(http.MethodGet, "/api/v1/listings/nope", nil), "listingId", "nope")
	rec := httptest.NewRecorder()
	ListingGet(svc, logger.Nop())(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListingUpdateKeepsAbsentFieldsNil(t *testing.T) {
	listingID := uuid.New()
	var got listings.UpdateInput
	svc := &fakeListings{updateFn: func(_ context.Context, _, _ uuid.UUID, in listings.UpdateInput) (*listings.ListingDTO, error) {
		got = in
		return &listings.ListingDTO{ID: listingID}, nil
	}}
	req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"quantity": 4}`))
	req = withParam(asUser(req, uuid.New(), enums.UserTypeBusiness), "listingId", listingID.String())
	rec := httptest.NewRecorder()
	ListingUpdate(svc, logger.Nop())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got.Quantity)
	assert.Equal(t, "4", got.Quantity.String())
	assert.Nil(t, got.Title)
	assert.Nil(t, got.Location)
}
