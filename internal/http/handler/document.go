package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Magazine-LFA/editorial/internal/model"
	"github.com/Magazine-LFA/editorial/internal/service"
)

// viewCookiePrefix keys the per-document reader token. The value is the
// RFC3339 timestamp of the reader's last counted view.
const viewCookiePrefix = "doc_view_"

// UploadDocument accepts a multipart PDF upload (fields: file, title, type,
// optional scheduled_date) and returns the created document.
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/pdf"
		}

		in := service.UploadInput{
			Title:       c.FormValue("title"),
			Type:        model.DocumentType(c.FormValue("type")),
			FileName:    fh.Filename,
			Size:        fh.Size,
			ContentType: ct,
		}
		if raw := c.FormValue("scheduled_date"); raw != "" {
			at, err := parseDate(raw)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "invalid scheduled_date")
			}
			in.ScheduledDate = &at
		}

		doc, err := svc.Upload(c.UserContext(), f, in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// ListDocuments returns all documents newest first. Query params: type
// (magazine|editorial) and include_deleted (admin use).
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docType := model.DocumentType(c.Query("type"))
		includeDeleted := c.QueryBool("include_deleted", false)

		items, err := svc.List(c.UserContext(), docType, includeDeleted)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": items, "total": len(items)})
	}
}

// GetDocument returns a single document by ID.
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// SoftDeleteDocument flags a document deleted. Repeating the call on an
// already-deleted document succeeds without further effect.
func SoftDeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.SoftDelete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// RestoreDocument clears a document's deletion flag.
func RestoreDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Restore(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "document restored"})
	}
}

// ViewDocumentBySlug is the reader path: it resolves a published document by
// slug, applies view accounting, and manages the reader's dedup token
// cookie. dedupWindow zero disables the cookie entirely.
func ViewDocumentBySlug(svc service.DocumentService, dedupWindow time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug := c.Params("slug")

		var lastViewedAt *time.Time
		if raw := c.Cookies(viewCookiePrefix + slug); raw != "" {
			if at, err := time.Parse(time.RFC3339, raw); err == nil {
				lastViewedAt = &at
			}
			// An unparseable token counts as no token.
		}

		doc, counted, err := svc.RecordView(c.UserContext(), slug, lastViewedAt)
		if err != nil {
			return writeServiceError(c, err)
		}

		if counted && dedupWindow > 0 {
			now := time.Now()
			c.Cookie(&fiber.Cookie{
				Name:     viewCookiePrefix + slug,
				Value:    now.Format(time.RFC3339),
				Expires:  now.Add(dedupWindow),
				Path:     "/",
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteStrictMode,
			})
		}
		return c.JSON(doc)
	}
}

func parseDate(raw string) (time.Time, error) {
	if at, err := time.Parse(time.RFC3339, raw); err == nil {
		return at, nil
	}
	return time.Parse("2006-01-02", raw)
}
