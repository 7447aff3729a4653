package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	apperrors "facility-crm/pkg/errors"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseFilterFromQuery(t *testing.T) {
	values, err := url.ParseQuery("search=+лифт+&sort[created_at]=DESC&sort[bad]=up&filter[status]=created&filter[status]=assigned&filter[building_id]=3&limit=10&page=2")
	require.NoError(t, err)

	f := ParseFilterFromQuery(values)

	assert.Equal(t, "лифт", f.Search)
	assert.Equal(t, map[string]string{"created_at": "desc"}, f.Sort)
	assert.Equal(t, "created,assigned", f.Filter["status"])
	assert.Equal(t, "3", f.Filter["building_id"])
	assert.Equal(t, 10, f.Limit)
	assert.Equal(t, 2, f.Page)
	assert.Equal(t, 10, f.Offset)
	assert.True(t, f.WithPagination)
}

func TestParseFilterFromQuery_Limits(t *testing.T) {
	f := ParseFilterFromQuery(url.Values{"limit": {"100000"}, "withPagination": {"false"}})
	assert.Equal(t, MaxLimit, f.Limit)
	assert.False(t, f.WithPagination)

	f = ParseFilterFromQuery(url.Values{"limit": {"-1"}, "offset": {"7"}})
	assert.Equal(t, DefaultLimit, f.Limit)
	assert.Equal(t, 7, f.Offset)
}

func TestPagination(t *testing.T) {
	f := ParseFilterFromQuery(url.Values{"limit": {"10"}})
	assert.Equal(t, 3, Pagination(f, 21).TotalPages)
	assert.Equal(t, 2, Pagination(f, 20).TotalPages)
	assert.Equal(t, 0, Pagination(f, 0).TotalPages)
}

func newContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSuccessResponse_List(t *testing.T) {
	c, rec := newContext("/api/clients?limit=2")
	require.NoError(t, SuccessResponse(c, []int{1, 2}, "ok", http.StatusOK, 5))

	body := decode(t, rec)["body"].(map[string]interface{})
	pagination := body["pagination"].(map[string]interface{})
	assert.Len(t, body["list"], 2)
	assert.EqualValues(t, 5, pagination["total_count"])
	assert.EqualValues(t, 3, pagination["total_pages"])
}

func TestSuccessResponse_Single(t *testing.T) {
	c, rec := newContext("/api/clients/1")
	require.NoError(t, SuccessResponse(c, map[string]int{"id": 1}, "ok", http.StatusOK))

	out := decode(t, rec)
	assert.Equal(t, true, out["status"])
	assert.EqualValues(t, 1, out["body"].(map[string]interface{})["id"])
}

func TestErrorResponse(t *testing.T) {
	logger := zap.NewNop()

	type payload struct {
		Name string `validate:"required"`
	}
	validationErr := validator.New().Struct(payload{})

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"http error", apperrors.NewHttpError(http.StatusTeapot, "чайник", nil, nil), http.StatusTeapot},
		{"wrapped not found", fmt.Errorf("repo: %w", apperrors.ErrNotFound), http.StatusNotFound},
		{"forbidden", apperrors.ErrForbidden, http.StatusForbidden},
		{"transition", apperrors.ErrInvalidTransition, http.StatusConflict},
		{"validation", validationErr, http.StatusBadRequest},
		{"invalid input", apperrors.NewInvalidInputError("плохое поле %s", "x"), http.StatusBadRequest},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newContext("/")
			require.NoError(t, ErrorResponse(c, tc.err, logger))
			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, false, decode(t, rec)["status"])
		})
	}
}

func TestParseIDParam(t *testing.T) {
	c, _ := newContext("/")
	c.SetParamNames("id")
	c.SetParamValues("42")
	id, err := ParseIDParam(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	c.SetParamValues("abc")
	_, err = ParseIDParam(c)
	var httpErr *apperrors.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestFormatHelpers(t *testing.T) {
	ts := time.Date(2024, 3, 5, 9, 7, 0, 0, time.Local)
	assert.Equal(t, "05.03.2024 09:07", FormatDateTime(ts))
	assert.Equal(t, "", FormatDateTimePtr(nil))
	assert.Equal(t, "1д 2ч 3м", FormatDuration(26*time.Hour+3*time.Minute))
	assert.Equal(t, "2ч", FormatDuration(2*time.Hour))
	assert.Equal(t, "меньше минуты", FormatDuration(10*time.Second))

	assert.Equal(t, "+992900123456", NormalizePhone(" +992 (900) 12-34-56 "))
	assert.True(t, IsE164("+992900123456"))
	assert.False(t, IsE164("900123456"))
}
