package assistance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pendampingan/assistance-backend/internal/auth"
	"github.com/pendampingan/assistance-backend/pkg/models"
)

// newTestApp wires the handler behind a stand-in auth middleware that trusts
// the X-Test-User / X-Test-Role headers, so requests skip real JWT handling.
func newTestApp(db *gorm.DB) *fiber.App {
	h := NewHandler(newTestService(db), nil)

	app := fiber.New(fiber.Config{ErrorHandler: auth.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		if u := c.Get("X-Test-User"); u != "" {
			c.Locals("userID", u)
			c.Locals("role", c.Get("X-Test-Role", "client"))
		}
		return c.Next()
	})

	api := app.Group("/api/assistance", func(c *fiber.Ctx) error {
		if c.Locals("userID") == nil {
			return fiber.ErrUnauthorized
		}
		return c.Next()
	})
	api.Post("/", h.Create)
	api.Get("/mine", h.ListMine)
	api.Get("/assigned", h.ListAssigned)
	api.Get("/:id", h.GetDetail)
	api.Post("/:id/messages", h.SendMessage)
	api.Put("/:id/identity", h.SubmitIdentity)
	api.Post("/:id/accept", h.AcceptOffer)
	api.Get("/:id/payment", h.PaymentSummary)
	api.Post("/:id/payment/confirm", h.ConfirmPayment)
	api.Post("/:id/stage", h.AdvanceStage)
	api.Post("/:id/cancel", h.Cancel)
	api.Post("/:id/reject", h.Reject)
	api.Get("/:id/history", h.GetHistory)
	api.Get("/:id/files/:fileID/signed-url", h.SignedDownloadURL)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, asUser uuid.UUID, role string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if asUser != uuid.Nil {
		req.Header.Set("X-Test-User", asUser.String())
		req.Header.Set("X-Test-Role", role)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp, out
}

func TestHTTP_Create_ValidationErrors(t *testing.T) {
	db := openTestDB(t)
	app := newTestApp(db)
	client := seedUser(t, db, models.RoleClient)

	resp, body := doJSON(t, app, "POST", "/api/assistance/", client, "client", fiber.Map{
		"case_description": "",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	errs, ok := body["errors"].(map[string]any)
	require.True(t, ok, "expected Laravel-style errors map, got %v", body)
	assert.Contains(t, errs, "lawyer_id")
	assert.Contains(t, errs, "case_description")
}

func TestHTTP_Create_HappyPath(t *testing.T) {
	db := openTestDB(t)
	app := newTestApp(db)
	client := seedUser(t, db, models.RoleClient)
	lawyer := seedUser(t, db, models.RoleLawyer)

	resp, body := doJSON(t, app, "POST", "/api/assistance/", client, "client", fiber.Map{
		"lawyer_id":        lawyer.String(),
		"case_description": "Perselisihan hak asuh anak",
		"client_city":      "Surabaya",
		"client_district":  "Gubeng",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, string(models.StatusPending), body["status"])
	assert.NotEmpty(t, body["id"])
}

func TestHTTP_AcceptBeforeIdentity_Unprocessable(t *testing.T) {
	db := openTestDB(t)
	app := newTestApp(db)

	seed := seedRequest(t, db, models.StatusNegotiating, nil)
	seedOffer(t, db, seed.Req.ID, seed.LawyerID, 5_000_000, time.Now())

	resp, body := doJSON(t, app, "POST",
		fmt.Sprintf("/api/assistance/%s/accept", seed.Req.ID),
		seed.ClientID, "client", fiber.Map{"price": 5_000_000})

	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "UNPROCESSABLE_ENTITY", body["code"])
}

func TestHTTP_Detail_StrangerForbidden(t *testing.T) {
	db := openTestDB(t)
	app := newTestApp(db)

	seed := seedRequest(t, db, models.StatusNegotiating, nil)
	stranger := seedUser(t, db, models.RoleClient)

	resp, _ := doJSON(t, app, "GET",
		fmt.Sprintf("/api/assistance/%s", seed.Req.ID), stranger, "client", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestHTTP_Detail_ReturnsPendingOffer(t *testing.T) {
	db := openTestDB(t)
	app := newTestApp(db)

	seed := seedRequest(t, db, models.StatusNegotiating, nil)
	seedOffer(t, db, seed.Req.ID, seed.LawyerID, 7_500_000, time.Now())

	resp, body := doJSON(t, app, "GET",
		fmt.Sprintf("/api/assistance/%s", seed.Req.ID), seed.ClientID, "client", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	off, ok := body["pending_offer"].(map[string]any)
	require.True(t, ok, "client should see the lawyer's outstanding offer")
	assert.EqualValues(t, 7_500_000, off["offered_price"])

	// The lawyer sent it, so from their side there is nothing to accept.
	_, body = doJSON(t, app, "GET",
		fmt.Sprintf("/api/assistance/%s", seed.Req.ID), seed.LawyerID, "lawyer", nil)
	assert.Nil(t, body["pending_offer"])
}

func TestHTTP_Identity_BadNIK(t *testing.T) {
	db := openTestDB(t)
	app := newTestApp(db)

	seed := seedRequest(t, db, models.StatusNegotiating, nil)

	resp, body := doJSON(t, app, "PUT",
		fmt.Sprintf("/api/assistance/%s/identity", seed.Req.ID),
		seed.ClientID, "client", fiber.Map{
			"name": "Budi", "address": "Jl. Merdeka 1", "age": 34,
			"religion": "Islam", "nik": "123", "case_type": "Perdata",
		})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	errs := body["errors"].(map[string]any)
	assert.Contains(t, errs, "nik")
}

func TestHTTP_Cancel_RequiresReason(t *testing.T) {
	db := openTestDB(t)
	app := newTestApp(db)

	seed := seedRequest(t, db, models.StatusPending, nil)

	resp, body := doJSON(t, app, "POST",
		fmt.Sprintf("/api/assistance/%s/cancel", seed.Req.ID),
		seed.ClientID, "client", fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	errs := body["errors"].(map[string]any)
	assert.Contains(t, errs, "reason")
}

func TestHTTP_Stage_UnknownStageRejected(t *testing.T) {
	db := openTestDB(t)
	app := newTestApp(db)

	seed := seedRequest(t, db, models.StatusInProgress, func(r *models.AssistanceRequest) {
		withIdentity(r)
		r.AgreedPrice = ptr(int64(1_000_000))
		r.PaymentStatus = models.PaymentPaid
	})

	resp, body := doJSON(t, app, "POST",
		fmt.Sprintf("/api/assistance/%s/stage", seed.Req.ID),
		seed.LawyerID, "lawyer", fiber.Map{"stage": "mediation"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	errs := body["errors"].(map[string]any)
	assert.Contains(t, errs, "stage")
}

func TestHTTP_List_InvalidStatusFilter(t *testing.T) {
	db := openTestDB(t)
	app := newTestApp(db)
	client := seedUser(t, db, models.RoleClient)

	resp, _ := doJSON(t, app, "GET", "/api/assistance/mine?status=weird", client, "client", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHTTP_AssignedList_RedactsUnverifiedPII(t *testing.T) {
	db := openTestDB(t)
	app := newTestApp(db)

	seed := seedRequest(t, db, models.StatusPending, func(r *models.AssistanceRequest) {
		r.CaseDescription = "Tolong hubungi saya di budi@example.com soal sengketa tanah"
	})

	_, body := doJSON(t, app, "GET", "/api/assistance/assigned", seed.LawyerID, "lawyer", nil)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	preview := items[0].(map[string]any)["preview"].(string)
	assert.NotContains(t, preview, "budi@example.com")
	assert.Contains(t, preview, "[redacted email]")

	// The client sees their own text untouched.
	_, body = doJSON(t, app, "GET", "/api/assistance/mine", seed.ClientID, "client", nil)
	items = body["items"].([]any)
	require.Len(t, items, 1)
	assert.Contains(t, items[0].(map[string]any)["preview"].(string), "budi@example.com")
}

func TestHTTP_SignedURL_WithoutStorageConfigured(t *testing.T) {
	db := openTestDB(t)
	app := newTestApp(db)

	seed := seedRequest(t, db, models.StatusInProgress, func(r *models.AssistanceRequest) {
		withIdentity(r)
		r.AgreedPrice = ptr(int64(1_000_000))
		r.PaymentStatus = models.PaymentPaid
	})

	file := models.AssistanceFile{
		ID: uuid.New(), RequestID: seed.Req.ID,
		Key: "assistance/" + seed.Req.ID.String() + "/bukti.pdf",
		Mime: "application/pdf", Size: 1024, OriginalName: "bukti.pdf",
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.Create(&file).Error)

	resp, body := doJSON(t, app, "GET",
		fmt.Sprintf("/api/assistance/%s/files/%s/signed-url", seed.Req.ID, file.ID),
		seed.ClientID, "client", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "mock://storage/"+file.Key, body["url"])

	stranger := seedUser(t, db, models.RoleClient)
	resp, _ = doJSON(t, app, "GET",
		fmt.Sprintf("/api/assistance/%s/files/%s/signed-url", seed.Req.ID, file.ID),
		stranger, "client", nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestHTTP_Unauthenticated(t *testing.T) {
	db := openTestDB(t)
	app := newTestApp(db)

	resp, _ := doJSON(t, app, "GET", "/api/assistance/mine", uuid.Nil, "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
