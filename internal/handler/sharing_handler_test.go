package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/pitchstudio/deck-api/internal/dto"
	"github.com/pitchstudio/deck-api/internal/models"
	appErrors "github.com/pitchstudio/deck-api/pkg/errors"
	"github.com/pitchstudio/deck-api/pkg/response"
)

type sharingServiceMock struct {
	link       *models.SharingLink
	links      []models.SharingLink
	deck       *models.SharedDeck
	pdf        []byte
	filename   string
	err        error
	deletedID  string
	deactivate string
}

func (m *sharingServiceMock) CreateLink(ctx context.Context, projectID string, req dto.CreateLinkRequest, actorID string) (*models.SharingLink, error) {
	return m.link, m.err
}

func (m *sharingServiceMock) ListLinks(ctx context.Context, projectID string) ([]models.SharingLink, error) {
	return m.links, m.err
}

func (m *sharingServiceMock) Resolve(ctx context.Context, token string) (*models.SharedDeck, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.deck, nil
}

func (m *sharingServiceMock) ExportPDF(ctx context.Context, token string) ([]byte, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	return m.pdf, m.filename, nil
}

func (m *sharingServiceMock) DeactivateLink(ctx context.Context, id, actorID string) (*models.SharingLink, error) {
	m.deactivate = id
	return m.link, m.err
}

func (m *sharingServiceMock) DeleteLink(ctx context.Context, id, actorID string) error {
	m.deletedID = id
	return m.err
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestSharingHandlerCreateLink(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &sharingServiceMock{
		link: &models.SharingLink{ID: "l1", ProjectID: "proj-1", Token: "tok", Permission: models.PermissionView, IsActive: true},
	}
	handler := NewSharingHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateLinkRequest{Permission: models.PermissionView})
	c, w := newGinContext(http.MethodPost, "/projects/proj-1/links", payload)
	c.Params = gin.Params{{Key: "id", Value: "proj-1"}}

	handler.CreateLink(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestSharingHandlerSharedDeck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &sharingServiceMock{
		deck: &models.SharedDeck{
			Project:    &models.Project{ID: "proj-1", Title: "Deck"},
			Slides:     []models.Slide{{ID: "s1"}},
			Permission: models.PermissionView,
		},
	}
	handler := NewSharingHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/shared/tok", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}

	handler.SharedDeck(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data)
}

func TestSharingHandlerSharedDeckErrorStatuses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := map[*appErrors.Error]int{
		appErrors.ErrInvalidLink:       http.StatusNotFound,
		appErrors.ErrLinkInactive:      http.StatusForbidden,
		appErrors.ErrLinkExpired:       http.StatusGone,
		appErrors.ErrViewLimitExceeded: http.StatusForbidden,
	}
	for sentinel, status := range cases {
		handler := NewSharingHandler(&sharingServiceMock{err: sentinel})
		c, w := newGinContext(http.MethodGet, "/shared/tok", nil)
		c.Params = gin.Params{{Key: "token", Value: "tok"}}

		handler.SharedDeck(c)
		require.Equal(t, status, w.Code, sentinel.Code)

		var envelope response.Envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
		require.NotNil(t, envelope.Error)
		require.Equal(t, sentinel.Code, envelope.Error.Code)
	}
}

func TestSharingHandlerSharedExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &sharingServiceMock{pdf: []byte("%PDF-1.4 stub"), filename: "proj-1-v2.pdf"}
	handler := NewSharingHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/shared/tok/export", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}

	handler.SharedExport(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	require.Contains(t, w.Header().Get("Content-Disposition"), "proj-1-v2.pdf")
}

func TestSharingHandlerSharedExportForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSharingHandler(&sharingServiceMock{err: appErrors.ErrDownloadForbidden})

	c, w := newGinContext(http.MethodGet, "/shared/tok/export", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}

	handler.SharedExport(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestSharingHandlerDeleteLink(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &sharingServiceMock{}
	handler := NewSharingHandler(mockSvc)

	c, _ := newGinContext(http.MethodDelete, "/links/l1", nil)
	c.Params = gin.Params{{Key: "id", Value: "l1"}}

	handler.DeleteLink(c)
	// the recorder is only flushed by a running engine, so read the status
	// off the writer
	require.Equal(t, http.StatusNoContent, c.Writer.Status())
	require.Equal(t, "l1", mockSvc.deletedID)
}
