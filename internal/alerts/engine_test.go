package alerts

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetboard/assetboard/internal/config"
	"github.com/assetboard/assetboard/internal/metrics"
	"github.com/assetboard/assetboard/pkg/types"
)

// clock is a manually advanced time source.
type clock struct{ t time.Time }

func newClock() *clock { return &clock{t: time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)} }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func asset(id string, score int) types.Asset {
	return types.Asset{ID: id, ComputerName: "PC-" + id, HealthScore: score}
}

func lowScoreRule(cooldown time.Duration) config.AlertsConfig {
	return config.AlertsConfig{Rules: []config.AlertRule{{
		Name: "low-health", Condition: "health_score < 40", Severity: "critical", Cooldown: cooldown,
	}}}
}

func TestEvaluate_FiresPerAsset(t *testing.T) {
	e := New(lowScoreRule(time.Minute), nil)
	e.Evaluate([]types.Asset{asset("A1", 20), asset("A2", 90), asset("A3", 35)})

	active := e.Active()
	require.Len(t, active, 2)
	ids := []string{active[0].AssetID, active[1].AssetID}
	assert.ElementsMatch(t, []string{"A1", "A3"}, ids)
	for _, a := range active {
		assert.Equal(t, StateFiring, a.State)
		assert.Equal(t, "critical", a.Severity)
		assert.Equal(t, "low-health", a.RuleName)
		assert.NotEmpty(t, a.ID)
	}
	assert.Equal(t, 2, e.Firing())
}

func TestEvaluate_DoesNotRefireWhileActive(t *testing.T) {
	c := newClock()
	e := New(lowScoreRule(time.Minute), nil)
	e.now = c.now

	e.Evaluate([]types.Asset{asset("A1", 20)})
	first := e.Active()[0]

	c.advance(time.Hour)
	e.Evaluate([]types.Asset{asset("A1", 20)})

	active := e.Active()
	require.Len(t, active, 1)
	assert.Equal(t, first.ID, active[0].ID)
	assert.Equal(t, first.FiredAt, active[0].FiredAt)
}

func TestEvaluate_ResolvesWhenConditionClears(t *testing.T) {
	c := newClock()
	e := New(lowScoreRule(time.Minute), nil)
	e.now = c.now

	e.Evaluate([]types.Asset{asset("A1", 20)})
	c.advance(time.Minute)
	e.Evaluate([]types.Asset{asset("A1", 80)})

	active := e.Active()
	require.Len(t, active, 1)
	assert.Equal(t, StateResolved, active[0].State)
	require.NotNil(t, active[0].ResolvedAt)
	assert.Equal(t, c.t, *active[0].ResolvedAt)
	assert.Zero(t, e.Firing())
}

func TestEvaluate_ResolvesWhenAssetDisappears(t *testing.T) {
	e := New(lowScoreRule(time.Minute), nil)
	e.Evaluate([]types.Asset{asset("A1", 20)})
	e.Evaluate([]types.Asset{asset("A2", 90)})

	active := e.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "A1", active[0].AssetID)
	assert.Equal(t, StateResolved, active[0].State)
}

func TestEvaluate_CooldownAfterResolve(t *testing.T) {
	c := newClock()
	e := New(lowScoreRule(10*time.Minute), nil)
	e.now = c.now

	e.Evaluate([]types.Asset{asset("A1", 20)})
	c.advance(time.Minute)
	e.Evaluate([]types.Asset{asset("A1", 80)})
	c.advance(time.Minute)
	e.Evaluate([]types.Asset{asset("A1", 20)})
	assert.Zero(t, e.Firing(), "still cooling down")

	c.advance(10 * time.Minute)
	e.Evaluate([]types.Asset{asset("A1", 20)})
	assert.Equal(t, 1, e.Firing())
}

func TestActive_DropsOldResolved(t *testing.T) {
	c := newClock()
	e := New(lowScoreRule(time.Minute), nil)
	e.now = c.now

	e.Evaluate([]types.Asset{asset("A1", 20)})
	e.Evaluate(nil)
	require.Len(t, e.Active(), 1)

	c.advance(2 * time.Hour)
	assert.Empty(t, e.Active())
}

func TestActive_NewestFirst(t *testing.T) {
	c := newClock()
	e := New(lowScoreRule(time.Minute), nil)
	e.now = c.now

	e.Evaluate([]types.Asset{asset("A1", 20)})
	c.advance(time.Minute)
	e.Evaluate([]types.Asset{asset("A1", 20), asset("A2", 20)})

	active := e.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "A2", active[0].AssetID)
	assert.Equal(t, "A1", active[1].AssetID)
}

func TestNew_SkipsInvalidRules(t *testing.T) {
	e := New(config.AlertsConfig{Rules: []config.AlertRule{
		{Name: "bad", Condition: "serial == 1"},
		{Name: "grade-d", Condition: "grade == D"},
	}}, nil)
	require.Len(t, e.rules, 1)
	assert.Equal(t, "grade-d", e.rules[0].Name)
	assert.Equal(t, "warning", e.rules[0].Severity)
	assert.Equal(t, config.DefaultCooldown, e.rules[0].Cooldown)
}

func TestSetRules_ResolvesRemovedRules(t *testing.T) {
	c := newClock()
	e := New(lowScoreRule(time.Minute), nil)
	e.now = c.now
	e.Evaluate([]types.Asset{asset("A1", 20)})
	require.Equal(t, 1, e.Firing())

	c.advance(time.Minute)
	e.SetRules(config.AlertsConfig{Rules: []config.AlertRule{{Name: "grade-d", Condition: "grade == D"}}})
	assert.Zero(t, e.Firing())

	e.Evaluate([]types.Asset{{ID: "A9", HealthGrade: types.GradeD}})
	active := e.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "grade-d", active[0].RuleName)
}

func TestEvaluate_NoRulesIsNoop(t *testing.T) {
	e := New(config.AlertsConfig{}, nil)
	e.Evaluate([]types.Asset{asset("A1", 0)})
	assert.Empty(t, e.Active())
}

func TestEvaluate_UpdatesFiringGauge(t *testing.T) {
	m := metrics.New(nil)
	e := New(lowScoreRule(time.Minute), m)
	e.Evaluate([]types.Asset{asset("A1", 20), asset("A2", 10)})

	mfs, err := m.Registry().Gather()
	require.NoError(t, err)
	var got float64
	for _, mf := range mfs {
		if mf.GetName() == "assetboard_alerts_firing" {
			got = mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, 2.0, got)
}

func TestWebhookDelivery(t *testing.T) {
	type received struct {
		path string
		body map[string]interface{}
	}
	got := make(chan received, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		assert.NoError(t, json.Unmarshal(raw, &body))
		got <- received{path: r.URL.Path, body: body}
	}))
	defer srv.Close()

	t.Setenv("TEST_SLACK_URL", srv.URL+"/slack")
	t.Setenv("TEST_TEAMS_URL", srv.URL+"/teams")
	t.Setenv("TEST_HTTP_URL", srv.URL+"/http")

	cfg := lowScoreRule(time.Minute)
	cfg.Webhooks = []config.WebhookConfig{
		{Type: "slack", URLEnv: "TEST_SLACK_URL"},
		{Type: "teams", URLEnv: "TEST_TEAMS_URL"},
		{Type: "http", URLEnv: "TEST_HTTP_URL"},
		{Type: "slack", URLEnv: "TEST_UNSET_URL"},
	}
	e := New(cfg, nil)
	e.Evaluate([]types.Asset{asset("A1", 20)})

	byPath := map[string]map[string]interface{}{}
	for i := 0; i < 3; i++ {
		select {
		case r := <-got:
			byPath[r.path] = r.body
		case <-time.After(5 * time.Second):
			t.Fatal("webhook not delivered")
		}
	}

	assert.Contains(t, byPath["/slack"]["text"], "[CRITICAL]")
	assert.Contains(t, byPath["/slack"]["text"], "A1")
	attachments, ok := byPath["/slack"]["attachments"].([]interface{})
	require.True(t, ok)
	require.Len(t, attachments, 1)
	assert.Equal(t, "#C62828", attachments[0].(map[string]interface{})["color"])

	assert.Equal(t, "MessageCard", byPath["/teams"]["@type"])
	sections, ok := byPath["/teams"]["sections"].([]interface{})
	require.True(t, ok)
	facts := sections[0].(map[string]interface{})["facts"].([]interface{})
	assert.Equal(t, map[string]interface{}{"name": "Asset", "value": "A1"}, facts[0])

	assert.Equal(t, "alert.firing", byPath["/http"]["event"])
	alert, ok := byPath["/http"]["alert"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "A1", alert["asset_id"])
	assert.Equal(t, StateFiring, alert["state"])
}

func TestPayloads_CarryAssetContext(t *testing.T) {
	a := &Alert{
		RuleName:     "old-disk",
		AssetID:      "A7",
		ComputerName: "PC-07",
		User:         "Jane Doe",
		Dept:         "Finance",
		Grade:        "D",
		HealthScore:  25,
		Severity:     "warning",
		Value:        "51000",
		Message:      "disk worn",
		State:        StateResolved,
	}

	assert.Equal(t, "[RESOLVED] old-disk on PC-07 (A7), Finance", headline(a))
	assert.Equal(t, []fact{
		{"Asset", "A7"},
		{"Computer", "PC-07"},
		{"User", "Jane Doe"},
		{"Dept", "Finance"},
		{"Health", "25 (grade D)"},
		{"Observed", "51000"},
	}, assetFacts(a))

	body, err := slackPayload(a)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"color":"#2E7D32"`)
	assert.Contains(t, string(body), `"title":"Dept","value":"Finance"`)

	body, err = httpPayload(a)
	require.NoError(t, err)
	var generic struct {
		Event string `json:"event"`
		Alert Alert  `json:"alert"`
	}
	require.NoError(t, json.Unmarshal(body, &generic))
	assert.Equal(t, "alert.resolved", generic.Event)
	assert.Equal(t, "Finance", generic.Alert.Dept)
	assert.Equal(t, "D", generic.Alert.Grade)
}

func TestAssetFacts_SkipsEmpty(t *testing.T) {
	facts := assetFacts(&Alert{AssetID: "A1", Grade: "B", HealthScore: 70})
	assert.Equal(t, []fact{{"Asset", "A1"}, {"Health", "70 (grade B)"}}, facts)
}

func TestPost_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	e := New(config.AlertsConfig{}, nil)
	err := e.post(srv.URL, []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
