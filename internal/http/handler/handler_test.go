package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Magazine-LFA/editorial/internal/model"
	"github.com/Magazine-LFA/editorial/internal/service"
	serviceMocks "github.com/Magazine-LFA/editorial/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func multipartUpload(t *testing.T, fileName, title, docType string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	part.Write([]byte("%PDF-1.4"))
	writer.WriteField("title", title)
	writer.WriteField("type", docType)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Post("/documents", UploadDocument(mockSvc))

	t.Run("created", func(t *testing.T) {
		body, ct := multipartUpload(t, "june.pdf", "The June Issue", "magazine")

		expectedDoc := &model.Document{ID: uuid.New().String(), Slug: "the-june-issue"}
		mockSvc.On("Upload", mock.Anything, mock.Anything, mock.MatchedBy(func(in service.UploadInput) bool {
			return in.Title == "The June Issue" &&
				in.Type == model.TypeMagazine &&
				in.FileName == "june.pdf"
		})).Return(expectedDoc, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result model.Document
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, expectedDoc.ID, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/documents", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
	})

	t.Run("validation error from service", func(t *testing.T) {
		body, ct := multipartUpload(t, "notes.docx", "Notes", "magazine")

		mockSvc.On("Upload", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &service.ValidationError{Field: "file", Reason: "only PDF files are allowed"}).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "VALIDATION_ERROR", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("storage error", func(t *testing.T) {
		body, ct := multipartUpload(t, "june.pdf", "The June Issue", "magazine")

		mockSvc.On("Upload", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &service.StorageError{Op: "store", Err: errors.New("quota")}).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "STORAGE_ERROR", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("persistence error", func(t *testing.T) {
		body, ct := multipartUpload(t, "june.pdf", "The June Issue", "magazine")

		mockSvc.On("Upload", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, &service.PersistenceError{Op: "create", Err: errors.New("duplicate slug")}).Once()

		req := httptest.NewRequest(http.MethodPost, "/documents", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "PERSISTENCE_ERROR", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestListDocuments(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/documents", ListDocuments(mockSvc))

	t.Run("filtered by type", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, model.TypeMagazine, false).
			Return([]model.Document{{ID: "1"}, {ID: "2"}}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents?type=magazine", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Data  []model.Document `json:"data"`
			Total int              `json:"total"`
		}
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Data, 2)
		assert.Equal(t, 2, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("include deleted", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, model.DocumentType(""), true).
			Return([]model.Document{}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents?include_deleted=true", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, model.DocumentType(""), false).
			Return(nil, &service.PersistenceError{Op: "list", Err: errors.New("db down")}).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Get("/documents/:id", GetDocument(mockSvc))

	t.Run("found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(&model.Document{ID: id}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result model.Document
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(nil, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/documents/not-a-uuid", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_ID", res.Error.Code)
	})
}

func TestSoftDeleteDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Delete("/documents/:id", SoftDeleteDocument(mockSvc))

	t.Run("deleted", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("SoftDelete", mock.Anything, id).Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("SoftDelete", mock.Anything, id).Return(service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestRestoreDocument(t *testing.T) {
	mockSvc := new(serviceMocks.MockDocumentService)
	app := fiber.New()
	app.Patch("/documents/:id/restore", RestoreDocument(mockSvc))

	t.Run("restored", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Restore", mock.Anything, id).Return(nil).Once()

		req := httptest.NewRequest(http.MethodPatch, "/documents/"+id+"/restore", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Restore", mock.Anything, id).Return(service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodPatch, "/documents/"+id+"/restore", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestViewDocumentBySlug(t *testing.T) {
	window := 24 * time.Hour

	t.Run("counted view issues the reader token", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := fiber.New()
		app.Get("/documents/slug/:slug", ViewDocumentBySlug(mockSvc, window))

		doc := &model.Document{ID: "doc-1", Slug: "june-issue", Views: 1}
		mockSvc.On("RecordView", mock.Anything, "june-issue", (*time.Time)(nil)).
			Return(doc, true, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/slug/june-issue", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var cookie *http.Cookie
		for _, ck := range resp.Cookies() {
			if ck.Name == viewCookiePrefix+"june-issue" {
				cookie = ck
			}
		}
		require.NotNil(t, cookie)
		_, err := time.Parse(time.RFC3339, cookie.Value)
		assert.NoError(t, err)

		var result model.Document
		json.NewDecoder(resp.Body).Decode(&result)
		assert.EqualValues(t, 1, result.Views)
		mockSvc.AssertExpectations(t)
	})

	t.Run("valid token is forwarded and no new token issued", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := fiber.New()
		app.Get("/documents/slug/:slug", ViewDocumentBySlug(mockSvc, window))

		last := time.Now().Add(-1 * time.Hour).Truncate(time.Second)
		doc := &model.Document{ID: "doc-1", Slug: "june-issue", Views: 1}
		mockSvc.On("RecordView", mock.Anything, "june-issue", mock.MatchedBy(func(at *time.Time) bool {
			return at != nil && at.Equal(last)
		})).Return(doc, false, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/slug/june-issue", nil)
		req.AddCookie(&http.Cookie{Name: viewCookiePrefix + "june-issue", Value: last.Format(time.RFC3339)})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, resp.Cookies())
		mockSvc.AssertExpectations(t)
	})

	t.Run("garbled token counts as no token", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := fiber.New()
		app.Get("/documents/slug/:slug", ViewDocumentBySlug(mockSvc, window))

		doc := &model.Document{ID: "doc-1", Slug: "june-issue", Views: 2}
		mockSvc.On("RecordView", mock.Anything, "june-issue", (*time.Time)(nil)).
			Return(doc, true, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/slug/june-issue", nil)
		req.AddCookie(&http.Cookie{Name: viewCookiePrefix + "june-issue", Value: "not-a-timestamp"})
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no token under the unconditional policy", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := fiber.New()
		app.Get("/documents/slug/:slug", ViewDocumentBySlug(mockSvc, 0))

		doc := &model.Document{ID: "doc-1", Slug: "june-issue", Views: 3}
		mockSvc.On("RecordView", mock.Anything, "june-issue", (*time.Time)(nil)).
			Return(doc, true, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/slug/june-issue", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, resp.Cookies())
		mockSvc.AssertExpectations(t)
	})

	t.Run("soft-deleted slug is not found", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockDocumentService)
		app := fiber.New()
		app.Get("/documents/slug/:slug", ViewDocumentBySlug(mockSvc, window))

		mockSvc.On("RecordView", mock.Anything, "gone", (*time.Time)(nil)).
			Return(nil, false, service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/slug/gone", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mockSvc := new(serviceMocks.MockDocumentService)
	// Register all routes with the admin gate armed
	RegisterRoutes(app, nil, mockSvc, "s3cret", 24*time.Hour)

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// Health endpoint only allows GET
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})

	t.Run("mutating routes sit behind the admin gate", func(t *testing.T) {
		id := uuid.New().String()
		req := httptest.NewRequest(http.MethodDelete, "/documents/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "UNAUTHORIZED", res.Error.Code)
	})

	t.Run("reader route stays public", func(t *testing.T) {
		mockSvc.On("RecordView", mock.Anything, "june-issue", (*time.Time)(nil)).
			Return(&model.Document{ID: "doc-1", Slug: "june-issue"}, true, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/documents/slug/june-issue", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}
