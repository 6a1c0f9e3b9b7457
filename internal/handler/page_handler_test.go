package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"activities-web/internal/apistub"
	"activities-web/internal/config"
	"activities-web/internal/container"
	"activities-web/internal/domain"
	"activities-web/internal/middleware"
	"activities-web/pkg/logger"
)

type testApp struct {
	stub    *apistub.Server
	api     *httptest.Server
	apiDown *atomic.Bool
	c       *container.Container
	server  *httptest.Server
	client  *http.Client
}

func newTestApp(t *testing.T, redisURL string) *testApp {
	t.Helper()

	stub := apistub.New(apistub.DefaultCatalog())
	apiDown := &atomic.Bool{}
	stubHandler := stub.Handler()
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apiDown.Load() {
			http.Error(w, "Bad Gateway", http.StatusBadGateway)
			return
		}
		stubHandler.ServeHTTP(w, r)
	}))
	t.Cleanup(api.Close)

	cfg := &config.Config{
		APIBaseURL:       api.URL,
		Environment:      "test",
		RedisURL:         redisURL,
		SessionSecret:    "test-secret",
		SessionTTL:       time.Hour,
		MessageHideAfter: time.Minute,
	}
	c, err := container.New(cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if c.HasRedis() {
			c.GetRedisClient().Close()
		}
	})

	server := httptest.NewServer(NewRouter(c))
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testApp{stub: stub, api: api, apiDown: apiDown, c: c, server: server, client: &http.Client{Jar: jar}}
}

func (a *testApp) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := a.client.Get(a.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

// post follows the 303 and returns the page it lands on.
func (a *testApp) post(t *testing.T, path string, form url.Values) string {
	t.Helper()
	resp, err := a.client.PostForm(a.server.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/", resp.Request.URL.Path)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

// view reads the stored view of the client's session.
func (a *testApp) view(t *testing.T) *domain.ViewState {
	t.Helper()
	u, err := url.Parse(a.server.URL)
	require.NoError(t, err)

	for _, cookie := range a.client.Jar.Cookies(u) {
		if cookie.Name != middleware.SessionCookieName {
			continue
		}
		sessionID, _, err := a.c.GetSigner().Verify(cookie.Value)
		require.NoError(t, err)
		view, err := a.c.GetViews().Load(context.Background(), sessionID)
		require.NoError(t, err)
		return view
	}
	t.Fatal("no session cookie")
	return nil
}

var bannerPattern = regexp.MustCompile(`<div id="message" class="(\w+)" style="animation-delay: \d+ms">([^<]*)</div>`)

// assertBanner checks the visible status message of a rendered page.
func assertBanner(t *testing.T, body string, kind domain.MessageKind, text string) {
	t.Helper()
	m := bannerPattern.FindStringSubmatch(body)
	require.NotNil(t, m, "no visible message in page")
	assert.Equal(t, string(kind), m[1])
	assert.Equal(t, text, m[2])
}

func TestPage_FirstVisitLoadsActivities(t *testing.T) {
	app := newTestApp(t, "")

	status, body := app.get(t, "/")

	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "<h4>Chess Club</h4>")
	assert.Contains(t, body, "<h4>Programming Class</h4>")
	assert.Contains(t, body, `<span class="spots-left">10</span> spots left`)
	assert.Contains(t, body, `<span class="participant-email">michael@mergington.edu</span>`)
	assert.Contains(t, body, `<div id="message" class="hidden"></div>`)
	assert.True(t, app.view(t).Loaded)
}

func TestPage_SignupPatchesCard(t *testing.T) {
	app := newTestApp(t, "")
	app.get(t, "/")

	body := app.post(t, "/signup", url.Values{"activity": {"Chess Club"}, "email": {"new@mergington.edu"}})

	assertBanner(t, body, domain.MessageSuccess, "Signed up new@mergington.edu for Chess Club")
	assert.Contains(t, body, `<span class="participant-email">new@mergington.edu</span>`)
	assert.Contains(t, body, `<span class="spots-left">9</span>`)
	assert.Contains(t, app.stub.Participants("Chess Club"), "new@mergington.edu")

	// Form is cleared after success.
	assert.Contains(t, body, `placeholder="your-email@mergington.edu" value=""`)
}

func TestPage_SignupRejectedKeepsFormAndShowsDetail(t *testing.T) {
	app := newTestApp(t, "")
	app.get(t, "/")

	body := app.post(t, "/signup", url.Values{"activity": {"Chess Club"}, "email": {"michael@mergington.edu"}})

	assertBanner(t, body, domain.MessageError, "Student is already signed up")
	assert.Contains(t, body, `<option value="Chess Club" selected>`)
	assert.Contains(t, body, `placeholder="your-email@mergington.edu" value="michael@mergington.edu"`)
	assert.Len(t, app.view(t).Find("Chess Club").Participants, 2)
}

func TestPage_SignupMissingFields(t *testing.T) {
	app := newTestApp(t, "")
	app.get(t, "/")

	body := app.post(t, "/signup", url.Values{"activity": {"Gym Class"}, "email": {"  "}})

	assertBanner(t, body, domain.MessageError, "Please select an activity and enter an email.")
	assert.Contains(t, body, `<option value="Gym Class" selected>`)
	assert.Len(t, app.stub.Participants("Gym Class"), 2)
}

func TestPage_Unregister(t *testing.T) {
	app := newTestApp(t, "")
	app.get(t, "/")

	card := app.view(t).Find("Chess Club")
	require.NotNil(t, card)
	entry := card.Participants[0]

	form := url.Values{"activity": {"Chess Club"}, "email": {entry.Email}}
	body := app.post(t, "/participants/"+entry.EntryID+"/unregister", form)

	assertBanner(t, body, domain.MessageSuccess, "Unregistered michael@mergington.edu from Chess Club")
	assert.NotContains(t, body, `<span class="participant-email">michael@mergington.edu</span>`)
	assert.Contains(t, body, `<span class="spots-left">11</span>`)
	assert.Equal(t, []string{"daniel@mergington.edu"}, app.stub.Participants("Chess Club"))

	// A second submit of the same control is rejected by the API and
	// leaves the view alone.
	body = app.post(t, "/participants/"+entry.EntryID+"/unregister", form)
	assertBanner(t, body, domain.MessageError, "Student is not signed up for this activity")
	assert.Len(t, app.view(t).Find("Chess Club").Participants, 1)
}

func TestPage_UnregisterWithoutFields(t *testing.T) {
	app := newTestApp(t, "")
	app.get(t, "/")

	body := app.post(t, "/participants/whatever/unregister", url.Values{})

	assertBanner(t, body, domain.MessageError, "Failed to unregister")
	assert.Len(t, app.stub.Participants("Chess Club"), 2)
}

func TestPage_UnregisterStaleEntryReloads(t *testing.T) {
	app := newTestApp(t, "")
	app.get(t, "/")

	form := url.Values{"activity": {"Chess Club"}, "email": {"daniel@mergington.edu"}}
	body := app.post(t, "/participants/stale-entry/unregister", form)

	assertBanner(t, body, domain.MessageSuccess, "Unregistered daniel@mergington.edu from Chess Club")
	assert.NotContains(t, body, `<span class="participant-email">daniel@mergington.edu</span>`)
	assert.Contains(t, body, `<span class="participant-email">michael@mergington.edu</span>`)
	assert.Len(t, app.view(t).Find("Chess Club").Participants, 1)
}

func TestPage_ReloadPicksUpServerChanges(t *testing.T) {
	app := newTestApp(t, "")
	_, body := app.get(t, "/")
	assert.NotContains(t, body, "other@mergington.edu")

	_, appErr := app.stub.Signup("Gym Class", "other@mergington.edu")
	require.Nil(t, appErr)

	_, body = app.get(t, "/")
	assert.Contains(t, body, `<span class="participant-email">other@mergington.edu</span>`)
}

func TestPage_ReloadAfterFailedLoad(t *testing.T) {
	app := newTestApp(t, "")
	app.apiDown.Store(true)

	_, body := app.get(t, "/")
	assert.Contains(t, body, "Failed to load activities. Please try again later.")
	assert.True(t, app.view(t).LoadFailed)

	app.apiDown.Store(false)

	_, body = app.get(t, "/")
	assert.NotContains(t, body, "Failed to load activities")
	assert.Contains(t, body, "<h4>Chess Club</h4>")
	assert.False(t, app.view(t).LoadFailed)
}

func TestPage_PatchSurvivesRedirectOnly(t *testing.T) {
	app := newTestApp(t, "")
	app.get(t, "/")

	body := app.post(t, "/signup", url.Values{"activity": {"Chess Club"}, "email": {"michael@mergington.edu"}})
	assertBanner(t, body, domain.MessageError, "Student is already signed up")
	assert.False(t, app.view(t).Patched)

	_, body = app.get(t, "/")
	assert.Contains(t, body, `<div id="message" class="hidden"></div>`)
	assert.Contains(t, body, `placeholder="your-email@mergington.edu" value=""`)
	assert.NotContains(t, body, `<option value="Chess Club" selected>`)
}

func TestPage_RefreshButton(t *testing.T) {
	app := newTestApp(t, "")
	app.get(t, "/")

	_, appErr := app.stub.Signup("Gym Class", "other@mergington.edu")
	require.Nil(t, appErr)

	body := app.post(t, "/refresh", nil)
	assert.Contains(t, body, `<span class="participant-email">other@mergington.edu</span>`)
}

func TestPage_Partial(t *testing.T) {
	app := newTestApp(t, "")

	status, body := app.get(t, "/partials/activities")

	assert.Equal(t, http.StatusOK, status)
	assert.NotContains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, `<div id="activities-list">`)
	assert.Contains(t, body, `<option value="">-- Select an activity --</option>`)
	assert.Contains(t, body, `<option value="Gym Class">Gym Class</option>`)
}

func TestPage_PartialLeavesPendingPatch(t *testing.T) {
	app := newTestApp(t, "")
	app.get(t, "/")

	// Commit without following the redirect.
	client := &http.Client{
		Jar: app.client.Jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.PostForm(app.server.URL+"/signup", url.Values{"activity": {"Chess Club"}, "email": {"new@mergington.edu"}})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.True(t, app.view(t).Patched)

	_, body := app.get(t, "/partials/activities")
	assert.Contains(t, body, `<span class="participant-email">new@mergington.edu</span>`)
	assert.True(t, app.view(t).Patched)

	_, body = app.get(t, "/")
	assertBanner(t, body, domain.MessageSuccess, "Signed up new@mergington.edu for Chess Club")
}

func TestPage_APIUnavailable(t *testing.T) {
	app := newTestApp(t, "")
	app.api.Close()

	status, body := app.get(t, "/")

	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Failed to load activities. Please try again later.")
	assert.NotContains(t, body, "activity-card")

	body = app.post(t, "/signup", url.Values{"activity": {"Chess Club"}, "email": {"a@x.com"}})
	assertBanner(t, body, domain.MessageError, "Failed to sign up. Please try again.")
}

func TestPage_SessionsAreIsolated(t *testing.T) {
	app := newTestApp(t, "")
	app.get(t, "/")
	app.post(t, "/signup", url.Values{"activity": {"Chess Club"}, "email": {"michael@mergington.edu"}})

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	other := &testApp{stub: app.stub, c: app.c, server: app.server, client: &http.Client{Jar: jar}}

	_, body := other.get(t, "/")
	assert.Contains(t, body, `<div id="message" class="hidden"></div>`)
	assert.NotContains(t, body, "Student is already signed up")
}

func TestPage_RedisSessionStore(t *testing.T) {
	mr := miniredis.RunT(t)
	app := newTestApp(t, "redis://"+mr.Addr()+"/0")
	require.True(t, app.c.HasRedis())

	app.get(t, "/")
	body := app.post(t, "/signup", url.Values{"activity": {"Gym Class"}, "email": {"new@mergington.edu"}})

	assert.Contains(t, body, `<span class="participant-email">new@mergington.edu</span>`)
	assert.Len(t, mr.Keys(), 1)
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, "")

	status, body := app.get(t, "/health")
	require.Equal(t, http.StatusOK, status)

	var response HealthResponse
	require.NoError(t, json.Unmarshal([]byte(body), &response))
	assert.Equal(t, "healthy", response.Status)
	assert.Equal(t, "memory", response.SessionStore)
	assert.Equal(t, "activities-web", response.Service)
}

func TestHealth_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	app := newTestApp(t, "redis://"+mr.Addr()+"/0")
	mr.Close()

	status, body := app.get(t, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, status)

	var response HealthResponse
	require.NoError(t, json.Unmarshal([]byte(body), &response))
	assert.Equal(t, "unhealthy", response.Status)
	assert.Equal(t, "redis", response.SessionStore)
}

func TestNotFound(t *testing.T) {
	app := newTestApp(t, "")

	status, _ := app.get(t, "/nope")
	assert.Equal(t, http.StatusNotFound, status)
}
