package assistance

import (
	"mime"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pendampingan/assistance-backend/pkg/models"
)

// Attachments ride the message ledger as file-type messages. The bytes live
// in Supabase Storage; the workflow only records object keys.

const maxAttachmentSize = 10 * 1024 * 1024

// UploadAttachment handles POST /api/assistance/:id/attachments.
// Accepts a single multipart file (PDF/PNG) plus an optional caption.
func (h *Handler) UploadAttachment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if h.sb == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "file storage is not configured")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart form with a file is required")
	}
	if fh.Size <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "empty file")
	}
	if fh.Size > maxAttachmentSize {
		return fiber.NewError(fiber.StatusBadRequest, "max 10MB per file")
	}

	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = mime.TypeByExtension(filepath.Ext(fh.Filename))
	}
	switch ct {
	case "application/pdf", "image/png":
		// ok
	default:
		return fiber.NewError(fiber.StatusBadRequest, "only PDF or PNG are allowed")
	}

	f, err := fh.Open()
	if err != nil {
		return fiber.ErrInternalServerError
	}
	defer f.Close()

	// Pakai nama unik agar tidak tabrakan
	key := h.sb.MakeObjectKey(id.String(), fh.Filename)
	if err := h.sb.Upload(key, f, ct, fh.Size); err != nil {
		return fiber.NewError(fiber.StatusBadGateway, "upload failed")
	}

	rec := models.AssistanceFile{
		RequestID:    id,
		Key:          key,
		Mime:         ct,
		Size:         int(fh.Size),
		OriginalName: fh.Filename,
		CreatedAt:    time.Now(),
	}
	msg, err := h.svc.RecordFileMessage(c.Context(), id, actorID(c), &rec, c.FormValue("caption"))
	if err != nil {
		// Best effort: don't leave an orphan object behind.
		_ = h.sb.Delete(key)
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id": rec.ID, "key": rec.Key, "name": rec.OriginalName, "size": rec.Size,
		"message_id": msg.ID,
	})
}

// SignedDownloadURL handles GET /api/assistance/:id/files/:fileID/signed-url.
// Only the two parties of the request may fetch one.
func (h *Handler) SignedDownloadURL(c *fiber.Ctx) error {
	if _, err := parseID(c, "id"); err != nil {
		return err
	}
	fileID, err := parseID(c, "fileID")
	if err != nil {
		return err
	}

	cf, err := h.svc.GetFile(c.Context(), fileID)
	if err != nil {
		return toHTTPError(err)
	}
	viewer := actorID(c)
	if viewer != cf.Request.ClientID && viewer != cf.Request.LawyerID {
		return fiber.ErrForbidden
	}

	// Tests run without storage configured; hand back a placeholder then.
	url := "mock://storage/" + cf.Key
	if h.sb != nil {
		url, err = h.sb.SignedURL(cf.Key, 60) // seconds
		if err != nil {
			return fiber.ErrInternalServerError
		}
	}
	return c.JSON(fiber.Map{"url": url, "expires_in": 60, "now": time.Now().UTC()})
}
