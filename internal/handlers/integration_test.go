package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fyihq/fyi-server/internal/config"
	"github.com/fyihq/fyi-server/internal/dto"
	"github.com/fyihq/fyi-server/internal/handlers"
	"github.com/fyihq/fyi-server/internal/models"
	"github.com/fyihq/fyi-server/internal/otp"
	"github.com/fyihq/fyi-server/internal/routes"
	"github.com/fyihq/fyi-server/internal/services"
	"github.com/fyihq/fyi-server/internal/timeline"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Contact{},
		&models.Group{},
		&models.FYI{},
		&models.ActiveFYI{},
		&models.Reaction{},
		&models.SeenBy{},
		&models.TimelineItem{},
		&models.OTPSession{},
		&models.RefreshToken{},
	))

	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 168 * time.Hour,
		OTPDevMode:       true,
	}

	hub := timeline.NewHub()
	otpProvider := otp.NewStoreProvider(db, cfg)
	userService := services.NewUserService(db)
	authService := services.NewAuthService(db, cfg, otpProvider, userService)
	timelineService := services.NewTimelineService(db, hub)
	contactService := services.NewContactService(db, timelineService)
	groupService := services.NewGroupService(db)
	fyiService := services.NewFYIService(db, hub)
	engagementService := services.NewEngagementService(db, hub)

	app := fiber.New()
	routes.Setup(app, cfg,
		handlers.NewAuthHandler(authService),
		handlers.NewHealthHandler(),
		handlers.NewUserHandler(userService),
		handlers.NewContactHandler(contactService),
		handlers.NewGroupHandler(groupService),
		handlers.NewFYIHandler(fyiService, engagementService),
		handlers.NewTimelineHandler(timelineService),
	)
	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

// authenticate walks the dev-mode OTP flow and returns an access token.
func authenticate(t *testing.T, app *fiber.App, phone, name string) string {
	t.Helper()

	resp, _ := doJSON(t, app, "POST", "/api/auth/request-code", "", dto.RequestCodeRequest{Phone: phone})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, raw := doJSON(t, app, "POST", "/api/auth/verify-code", "", dto.VerifyCodeRequest{
		Phone: phone, Code: "123456", Name: name,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))

	var auth dto.AuthResponse
	require.NoError(t, json.Unmarshal(raw, &auth))
	require.NotEmpty(t, auth.AccessToken)
	return auth.AccessToken
}

func TestAuthFlow(t *testing.T) {
	app, _ := setupTestApp(t)

	resp, raw := doJSON(t, app, "POST", "/api/auth/verify-code", "", dto.VerifyCodeRequest{
		Phone: "+15550000001", Code: "000000",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, string(raw))

	token := authenticate(t, app, "+15550000001", "Ada")
	assert.NotEmpty(t, token)
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	app, _ := setupTestApp(t)

	for _, route := range []struct{ method, path string }{
		{"GET", "/api/me"},
		{"GET", "/api/timeline"},
		{"POST", "/api/fyis"},
		{"GET", "/api/groups"},
		{"GET", "/api/contacts/mutual"},
	} {
		resp, _ := doJSON(t, app, route.method, route.path, "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, "%s %s", route.method, route.path)
	}
}

func TestStatusUpdateFlow(t *testing.T) {
	app, _ := setupTestApp(t)

	adaToken := authenticate(t, app, "+15550000001", "Ada")
	graceToken := authenticate(t, app, "+15550000002", "Grace")

	// Ada saves Grace; Grace is registered so the contact is mutual.
	resp, raw := doJSON(t, app, "POST", "/api/contacts/sync", adaToken, dto.SyncContactsRequest{
		Contacts: []dto.DeviceContact{{PhoneNumber: "+15550000002", SavedName: "Grace"}},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))
	var sync dto.ContactSyncResponse
	require.NoError(t, json.Unmarshal(raw, &sync))
	assert.Equal(t, 1, sync.NewMutualContacts)

	// Ada posts a broadcast.
	resp, raw = doJSON(t, app, "POST", "/api/fyis", adaToken, dto.CreateFYIRequest{
		Text: "lunch at noon", TargetType: models.TargetAll,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
	var created dto.CreateFYIResponse
	require.NoError(t, json.Unmarshal(raw, &created))
	require.NotNil(t, created.FYIID)

	// Grace sees it on her timeline.
	resp, raw = doJSON(t, app, "GET", "/api/timeline", graceToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var page dto.TimelinePage
	require.NoError(t, json.Unmarshal(raw, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "lunch at noon", page.Items[0].Text)

	// Grace reacts and marks it seen.
	path := fmt.Sprintf("/api/fyis/%s/reactions", created.FYIID)
	resp, raw = doJSON(t, app, "POST", path, graceToken, dto.ReactionRequest{Emoji: "❤️"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(raw))

	resp, _ = doJSON(t, app, "POST", fmt.Sprintf("/api/fyis/%s/seen", created.FYIID), graceToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Ada's active FYI carries the updated counters.
	resp, raw = doJSON(t, app, "GET", "/api/fyis/active", adaToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var active models.FYI
	require.NoError(t, json.Unmarshal(raw, &active))
	assert.Equal(t, 1, active.ReactionCount)
	assert.Equal(t, 1, active.SeenCount)

	// Unknown emoji is refused.
	resp, _ = doJSON(t, app, "POST", path, graceToken, dto.ReactionRequest{Emoji: "🦄"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGroupCRUD(t *testing.T) {
	app, _ := setupTestApp(t)
	token := authenticate(t, app, "+15550000001", "Ada")

	resp, raw := doJSON(t, app, "POST", "/api/groups", token, dto.CreateGroupRequest{
		Name: "close friends", Members: []string{"+15550000002"},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(raw))
	var created struct {
		GroupID string `json:"group_id"`
	}
	require.NoError(t, json.Unmarshal(raw, &created))
	require.NotEmpty(t, created.GroupID)

	resp, raw = doJSON(t, app, "GET", "/api/groups", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var listed struct {
		Groups []models.Group `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(raw, &listed))
	require.Len(t, listed.Groups, 1)
	assert.Equal(t, 1, listed.Groups[0].MemberCount)

	resp, _ = doJSON(t, app, "DELETE", "/api/groups/"+created.GroupID, token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, raw = doJSON(t, app, "GET", "/api/groups", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &listed))
	assert.Empty(t, listed.Groups)
}

func TestGetActiveFYI_NoneYet(t *testing.T) {
	app, _ := setupTestApp(t)
	token := authenticate(t, app, "+15550000001", "Ada")

	resp, _ := doJSON(t, app, "GET", "/api/fyis/active", token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
