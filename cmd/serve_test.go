package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-crm/internal/config"
	"github.com/sells-group/prospect-crm/internal/crm"
	"github.com/sells-group/prospect-crm/internal/kvstore"
	"github.com/sells-group/prospect-crm/internal/model"
	"github.com/sells-group/prospect-crm/internal/notify"
)

func newTestEnv(t *testing.T) *appEnv {
	t.Helper()

	kv, err := kvstore.Open(config.StoreConfig{Driver: "memory"})
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	notifier := notify.New(config.NotifyConfig{Retention: 10}, kv)
	store := crm.New(crm.Deps{KV: kv})
	store.Load([]model.Company{
		{
			ID:            "c1",
			Name:          "Acme Concrete",
			Status:        model.StatusLead,
			Priority:      model.PriorityHot,
			OverallScore:  150,
			LatestContact: time.Now().AddDate(0, 0, -2),
		},
		{
			ID:           "c2",
			Name:         "Bravo Foods",
			Status:       model.StatusWon,
			Priority:     model.PriorityCold,
			OverallScore: 40,
		},
	})

	return &appEnv{KV: kv, Notifier: notifier, Store: store}
}

func doRequest(t *testing.T, env *appEnv, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	newRouter(env).ServeHTTP(rec, req)
	return rec
}

func TestServeHealth(t *testing.T) {
	rec := doRequest(t, newTestEnv(t), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServeListCompanies(t *testing.T) {
	rec := doRequest(t, newTestEnv(t), http.MethodGet, "/api/companies", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Companies []model.Company `json:"companies"`
		Total     int             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Total)
	// Hot recent lead outranks the cold closed account.
	assert.Equal(t, "c1", resp.Companies[0].ID)
}

func TestServeListCompaniesFiltered(t *testing.T) {
	rec := doRequest(t, newTestEnv(t), http.MethodGet, "/api/companies?status=Won", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Companies []model.Company `json:"companies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Companies, 1)
	assert.Equal(t, "c2", resp.Companies[0].ID)
}

func TestServeListCompaniesLoadError(t *testing.T) {
	env := newTestEnv(t)
	env.Store.SetLoadError(assert.AnError)

	rec := doRequest(t, env, http.MethodGet, "/api/companies", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServeMoveStage(t *testing.T) {
	env := newTestEnv(t)
	rec := doRequest(t, env, http.MethodPost, "/api/companies/c1/stage", `{"status":"Qualified"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	c, ok := env.Store.Company("c1")
	require.True(t, ok)
	assert.Equal(t, model.StatusQualified, c.Status)
}

func TestServeMoveStageUnknownCompany(t *testing.T) {
	rec := doRequest(t, newTestEnv(t), http.MethodPost, "/api/companies/ghost/stage", `{"status":"Won"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeAddFollowUp(t *testing.T) {
	env := newTestEnv(t)
	rec := doRequest(t, env, http.MethodPost, "/api/companies/c1/followups",
		`{"type":"2_weeks","description":"send samples"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	c, _ := env.Store.Company("c1")
	require.Len(t, c.FollowUps, 1)
	assert.Equal(t, model.FollowUpTwoWeeks, c.FollowUps[0].Type)
}

func TestServeAddFollowUpCustomWithoutDate(t *testing.T) {
	rec := doRequest(t, newTestEnv(t), http.MethodPost, "/api/companies/c1/followups",
		`{"type":"custom","description":"call"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeCompleteFollowUp(t *testing.T) {
	env := newTestEnv(t)
	doRequest(t, env, http.MethodPost, "/api/companies/c1/followups", `{"type":"1_week"}`)
	c, _ := env.Store.Company("c1")
	require.Len(t, c.FollowUps, 1)

	rec := doRequest(t, env, http.MethodPost, "/api/followups/complete",
		`{"company_id":"c1","follow_up_id":"`+c.FollowUps[0].ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	c, _ = env.Store.Company("c1")
	assert.True(t, c.FollowUps[0].Completed)
}

func TestServeBulk(t *testing.T) {
	env := newTestEnv(t)
	rec := doRequest(t, env, http.MethodPost, "/api/bulk",
		`{"action":"updatePriority","company_ids":["c1","c2"],"data":{"priority":"Warm"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, id := range []string{"c1", "c2"} {
		c, _ := env.Store.Company(id)
		assert.Equal(t, model.PriorityWarm, c.Priority)
	}
}

func TestServeExportCSV(t *testing.T) {
	rec := doRequest(t, newTestEnv(t), http.MethodGet, "/api/export?format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Acme Concrete")
}

func TestServeExportUnknownFormat(t *testing.T) {
	rec := doRequest(t, newTestEnv(t), http.MethodGet, "/api/export?format=xml", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeNotifications(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.Notifier.Notify(context.Background(), "deal won", "c2", "Bravo Foods"))

	rec := doRequest(t, env, http.MethodGet, "/api/notifications", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Notifications []model.Notification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, "deal won", resp.Notifications[0].Message)
}

func TestServeRefreshScores(t *testing.T) {
	env := newTestEnv(t)
	rec := doRequest(t, env, http.MethodPost, "/api/scores/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)

	c, _ := env.Store.Company("c2")
	// Weighted strategy recomputes from raw signals, not the seeded 40.
	assert.NotEqual(t, 40, c.OverallScore)
}

func TestCriteriaFromQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/api/companies?status=Lead,Won&priority=Hot&min_score=10&q=concrete&recent=true", nil)
	criteria := criteriaFromQuery(req)

	assert.Equal(t, []model.Status{model.StatusLead, model.StatusWon}, criteria.Statuses)
	assert.Equal(t, []model.Priority{model.PriorityHot}, criteria.Priorities)
	require.NotNil(t, criteria.MinScore)
	assert.Equal(t, 10, *criteria.MinScore)
	assert.Nil(t, criteria.MaxScore)
	assert.Equal(t, "concrete", criteria.SearchQuery)
	assert.True(t, criteria.HasRecentActivity)
}
