package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"facility-crm/internal/dto"
	"facility-crm/internal/services"
	apperrors "facility-crm/pkg/errors"
	"facility-crm/pkg/types"
	"facility-crm/pkg/validation"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type fakeWorkOrderService struct {
	services.WorkOrderServiceInterface

	transitionErr error
	transitioned  []dto.TransitionWorkOrderDTO
	exportFilter  types.Filter
}

func (f *fakeWorkOrderService) TransitionWorkOrder(_ context.Context, id uint64, payload dto.TransitionWorkOrderDTO) (*dto.WorkOrderDTO, error) {
	if f.transitionErr != nil {
		return nil, f.transitionErr
	}
	f.transitioned = append(f.transitioned, payload)
	return &dto.WorkOrderDTO{ID: id, Title: "Протечка", Status: payload.Status}, nil
}

func (f *fakeWorkOrderService) ExportWorkOrders(_ context.Context, filter types.Filter) (*excelize.File, error) {
	f.exportFilter = filter
	file := excelize.NewFile()
	if err := file.SetCellValue("Sheet1", "A1", "ID"); err != nil {
		return nil, err
	}
	return file, nil
}

type fakeNavigationService struct {
	services.NavigationServiceInterface
	query string
}

func (f *fakeNavigationService) ResolveModals(_ context.Context, query string) (*dto.ModalStackDTO, error) {
	f.query = query
	return &dto.ModalStackDTO{
		Modals: []dto.ModalDTO{{Type: "work_order", ID: "3", Title: "Заявка #3: Лифт", ZIndex: 1000, Active: true}},
		Query:  query,
	}, nil
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validation.New()
	return e
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestWorkOrderController_Transition(t *testing.T) {
	svc := &fakeWorkOrderService{}
	ctrl := NewWorkOrderController(svc, zap.NewNop())
	e := newTestEcho()
	e.POST("/work-orders/:id/transition", ctrl.TransitionWorkOrder)

	rec := serve(e, http.MethodPost, "/work-orders/5/transition", `{"status":"in_progress","comment":"Выехал"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.transitioned, 1)
	assert.Equal(t, "in_progress", svc.transitioned[0].Status)
	require.NotNil(t, svc.transitioned[0].Comment)
	assert.Equal(t, "Выехал", *svc.transitioned[0].Comment)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.EqualValues(t, 5, out["body"].(map[string]interface{})["id"])

	t.Run("unknown status", func(t *testing.T) {
		rec := serve(e, http.MethodPost, "/work-orders/5/transition", `{"status":"paused"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("illegal transition", func(t *testing.T) {
		svc.transitionErr = apperrors.ErrInvalidTransition
		defer func() { svc.transitionErr = nil }()
		rec := serve(e, http.MethodPost, "/work-orders/5/transition", `{"status":"created"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("forbidden", func(t *testing.T) {
		svc.transitionErr = apperrors.ErrForbidden
		defer func() { svc.transitionErr = nil }()
		rec := serve(e, http.MethodPost, "/work-orders/5/transition", `{"status":"completed"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestWorkOrderController_Export(t *testing.T) {
	svc := &fakeWorkOrderService{}
	ctrl := NewWorkOrderController(svc, zap.NewNop())
	e := newTestEcho()
	e.GET("/work-orders/export", ctrl.ExportWorkOrders)

	rec := serve(e, http.MethodGet, "/work-orders/export?filter[status]=completed", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get(echo.HeaderContentType))
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentDisposition), "attachment; filename=work_orders_"))
	assert.Equal(t, "completed", svc.exportFilter.Filter["status"])

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Sheet1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "ID", v)
}

func TestNavigationController_GetModals(t *testing.T) {
	svc := &fakeNavigationService{}
	ctrl := NewNavigationController(svc, zap.NewNop())
	e := newTestEcho()
	e.GET("/navigation/modals", ctrl.GetModals)

	rec := serve(e, http.MethodGet, "/navigation/modals?modal=work_order:3", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "work_order:3", svc.query)

	var out struct {
		Body dto.ModalStackDTO `json:"body"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Body.Modals, 1)
	assert.Equal(t, "Заявка #3: Лифт", out.Body.Modals[0].Title)
	assert.True(t, out.Body.Modals[0].Active)
}

func TestWebSocketController_RequiresEmployee(t *testing.T) {
	ctrl := NewWebSocketController(nil, []string{"http://localhost:3000"}, zap.NewNop())
	e := newTestEcho()
	e.GET("/ws", ctrl.ServeWs)

	rec := serve(e, http.MethodGet, "/ws", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebSocketController_CheckOrigin(t *testing.T) {
	withOrigin := func(origin string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			req.Header.Set(echo.HeaderOrigin, origin)
		}
		return req
	}

	strict := NewWebSocketController(nil, []string{"http://localhost:3000"}, zap.NewNop())
	assert.True(t, strict.upgrader.CheckOrigin(withOrigin("http://localhost:3000")))
	assert.True(t, strict.upgrader.CheckOrigin(withOrigin("")), "без Origin (не браузер) пропускаем")
	assert.False(t, strict.upgrader.CheckOrigin(withOrigin("https://evil.example")))

	open := NewWebSocketController(nil, []string{"*"}, zap.NewNop())
	assert.True(t, open.upgrader.CheckOrigin(withOrigin("https://crm.example")))
	assert.True(t, open.upgrader.CheckOrigin(withOrigin("http://localhost:5173")))
}
