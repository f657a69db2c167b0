package middleware

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"stayops/config"
	"stayops/internal/apperrors"
	"stayops/internal/database"
	"stayops/internal/models"
	"stayops/internal/timewindow"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAdminKey = "test-admin-key"

type fakeVerifier struct {
	scope *models.TokenScope
	err   error
}

func (f *fakeVerifier) Verify(ctx context.Context, value string) (*models.TokenScope, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.scope, nil
}

func newAuthTestApp(verifier *fakeVerifier) *fiber.App {
	middleware := New(database.DB{}, config.Config{
		AdminAPIKey:        testAdminKey,
		CivilOffsetMinutes: 540,
	})

	app := fiber.New()
	app.Use(middleware.RequireToken(verifier))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, bearer string) int {
	t.Helper()

	request := httptest.NewRequest("GET", "/ping", nil)
	if bearer != "" {
		request.Header.Set("Authorization", "Bearer "+bearer)
	}

	response, err := app.Test(request)
	require.NoError(t, err)
	return response.StatusCode
}

func TestRequireTokenCurrentDayAccepted(t *testing.T) {
	today := timewindow.DateKey(time.Now(), timewindow.Location(540))
	app := newAuthTestApp(&fakeVerifier{scope: &models.TokenScope{
		SubjectType: models.SubjectWorker,
		SubjectID:   uuid.New(),
		DateKey:     today,
	}})

	assert.Equal(t, fiber.StatusOK, doRequest(t, app, "some-live-token"))
}

func TestRequireTokenElapsedDayRejected(t *testing.T) {
	app := newAuthTestApp(&fakeVerifier{scope: &models.TokenScope{
		SubjectType: models.SubjectWorker,
		SubjectID:   uuid.New(),
		DateKey:     "2020-01-01",
	}})

	assert.Equal(t, fiber.StatusUnauthorized, doRequest(t, app, "some-stale-token"))
}

func TestRequireTokenFutureDayAccepted(t *testing.T) {
	// Guest tokens are minted at reservation time, scoped to the planned
	// checkout date. They must already work before that day arrives.
	future := timewindow.DateKey(time.Now().Add(72*time.Hour), timewindow.Location(540))
	app := newAuthTestApp(&fakeVerifier{scope: &models.TokenScope{
		SubjectType: models.SubjectGuest,
		SubjectID:   uuid.New(),
		DateKey:     future,
	}})

	assert.Equal(t, fiber.StatusOK, doRequest(t, app, "some-guest-token"))
}

func TestRequireTokenAdminKeyAccepted(t *testing.T) {
	app := newAuthTestApp(&fakeVerifier{err: apperrors.Authorization()})

	assert.Equal(t, fiber.StatusOK, doRequest(t, app, testAdminKey))
}

func TestRequireTokenRejections(t *testing.T) {
	app := newAuthTestApp(&fakeVerifier{err: apperrors.Authorization()})

	assert.Equal(t, fiber.StatusUnauthorized, doRequest(t, app, ""))
	assert.Equal(t, fiber.StatusUnauthorized, doRequest(t, app, "unknown-token"))
}
