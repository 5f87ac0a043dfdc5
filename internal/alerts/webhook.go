package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// fact is one labelled line of asset context in a notification.
type fact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// assetFacts lists what an operator needs to find the machine, skipping
// empty fields.
func assetFacts(a *Alert) []fact {
	all := []fact{
		{"Asset", a.AssetID},
		{"Computer", a.ComputerName},
		{"User", a.User},
		{"Dept", a.Dept},
		{"Health", fmt.Sprintf("%d (grade %s)", a.HealthScore, a.Grade)},
		{"Observed", a.Value},
	}
	out := all[:0]
	for _, f := range all {
		if f.Value != "" {
			out = append(out, f)
		}
	}
	return out
}

// headline is the one-line summary used by chat targets.
func headline(a *Alert) string {
	where := a.AssetID
	if a.ComputerName != "" && a.ComputerName != a.AssetID {
		where = a.ComputerName + " (" + a.AssetID + ")"
	}
	if a.Dept != "" {
		where += ", " + a.Dept
	}
	return fmt.Sprintf("%s %s on %s", stateLabel(a), a.RuleName, where)
}

// slackPayload renders a as a Slack incoming-webhook message with a colored
// attachment of asset fields.
func slackPayload(a *Alert) ([]byte, error) {
	type field struct {
		Title string `json:"title"`
		Value string `json:"value"`
		Short bool   `json:"short"`
	}
	facts := assetFacts(a)
	fields := make([]field, 0, len(facts))
	for _, f := range facts {
		fields = append(fields, field{Title: f.Name, Value: f.Value, Short: true})
	}
	return json.Marshal(map[string]interface{}{
		"text": "*" + headline(a) + "*",
		"attachments": []map[string]interface{}{{
			"color":  "#" + stateColor(a),
			"text":   a.Message,
			"fields": fields,
			"ts":     strconv.FormatInt(a.FiredAt.Unix(), 10),
		}},
	})
}

// teamsPayload renders a as an Office 365 MessageCard.
func teamsPayload(a *Alert) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": stateColor(a),
		"summary":    headline(a),
		"title":      "Assetboard: " + headline(a),
		"sections": []map[string]interface{}{{
			"text":  a.Message,
			"facts": assetFacts(a),
		}},
	})
}

// httpPayload is the generic JSON body: an event name plus the alert.
func httpPayload(a *Alert) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"event": "alert." + a.State,
		"alert": a,
	})
}

var payloads = map[string]func(*Alert) ([]byte, error){
	"slack": slackPayload,
	"teams": teamsPayload,
	"http":  httpPayload,
}

// deliver sends a to every configured webhook. Failures are logged only.
func (e *Engine) deliver(a *Alert) {
	e.mu.Lock()
	webhooks := e.webhooks
	e.mu.Unlock()

	for _, wh := range webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}
		build, ok := payloads[wh.Type]
		if !ok {
			slog.Warn("alerts: unknown webhook type, skipping", "type", wh.Type)
			continue
		}

		body, err := build(a)
		if err == nil {
			err = e.post(url, body)
		}
		if err != nil {
			slog.Error("alerts: webhook delivery failed",
				"type", wh.Type, "rule", a.RuleName, "asset", a.AssetID, "err", err)
			continue
		}
		slog.Debug("alerts: webhook delivered",
			"type", wh.Type, "rule", a.RuleName, "asset", a.AssetID, "state", a.State)
	}
}

func (e *Engine) post(url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func stateLabel(a *Alert) string {
	if a.State == StateResolved {
		return "[RESOLVED]"
	}
	switch a.Severity {
	case "critical":
		return "[CRITICAL]"
	case "warning":
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}

// stateColor follows the grade palette: resolved is green, critical red,
// warning orange, anything else blue.
func stateColor(a *Alert) string {
	if a.State == StateResolved {
		return "2E7D32"
	}
	switch a.Severity {
	case "critical":
		return "C62828"
	case "warning":
		return "EF6C00"
	default:
		return "1565C0"
	}
}
