package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/classdesk/classdesk-api/internal/models"
)

func TestContentListEndpoint(t *testing.T) {
	app := setupViewApp(t, newPlatformStub())

	req := httptest.NewRequest(fiber.MethodGet, "/api/v2/teacher/classrooms/3/assignments/7/contents", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data []models.ContentItem `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data, 2)
}

func TestContentReorderEndpoint(t *testing.T) {
	platform := newPlatformStub()
	app := setupViewApp(t, platform)

	payload, err := json.Marshal(map[string]int{"from_index": 0, "to_index": 1})
	require.NoError(t, err)
	req := httptest.NewRequest(fiber.MethodPatch, "/api/v2/teacher/classrooms/3/assignments/7/contents/order", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 1, platform.reorderCalls)

	var body struct {
		Data []models.ContentItem `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, uint(11), body.Data[0].ID)
	require.Equal(t, 0, body.Data[0].Position)
}

func TestContentReorderRejectsBadIndexes(t *testing.T) {
	platform := newPlatformStub()
	app := setupViewApp(t, platform)

	payload, err := json.Marshal(map[string]int{"from_index": 0, "to_index": 9})
	require.NoError(t, err)
	req := httptest.NewRequest(fiber.MethodPatch, "/api/v2/teacher/classrooms/3/assignments/7/contents/order", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Zero(t, platform.reorderCalls)
}

func TestContentReorderRevertsOnRejection(t *testing.T) {
	platform := newPlatformStub()
	platform.mutationErr = errors.New("upstream 422")
	app := setupViewApp(t, platform)

	payload, err := json.Marshal(map[string]int{"from_index": 0, "to_index": 1})
	require.NoError(t, err)
	req := httptest.NewRequest(fiber.MethodPatch, "/api/v2/teacher/classrooms/3/assignments/7/contents/order", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	// The list serves the restored pre-drag order.
	platform.mutationErr = nil
	list := httptest.NewRequest(fiber.MethodGet, "/api/v2/teacher/classrooms/3/assignments/7/contents", nil)
	resp, err = app.Test(list)
	require.NoError(t, err)

	var body struct {
		Data []models.ContentItem `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, uint(10), body.Data[0].ID)
}
