package receiver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/assetboard/assetboard/internal/store"
)

// MaxBodyBytes bounds the size of an accepted upload.
const MaxBodyBytes = 32 << 20

// Installer is the part of the store the receiver writes to.
type Installer interface {
	Install(text, origin string) *store.Snapshot
}

// Response is the payload returned for an accepted upload.
type Response struct {
	SnapshotID string    `json:"snapshot_id"`
	Records    int       `json:"records"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Receiver handles POST /api/v1/snapshot.
type Receiver struct {
	store Installer
}

// New creates a Receiver that installs uploads into st.
func New(st Installer) *Receiver {
	return &Receiver{store: st}
}

func (rc *Receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil || !acceptedType(mt) {
			writeJSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": "content type must be text/csv"})
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "read body: " + err.Error()})
		return
	}
	if len(body) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "empty body"})
		return
	}

	snap := rc.store.Install(string(body), "upload")
	slog.Debug("receiver: snapshot stored",
		"snapshot_id", snap.ID, "records", len(snap.Assets), "remote", r.RemoteAddr)

	writeJSON(w, http.StatusCreated, Response{
		SnapshotID: snap.ID.String(),
		Records:    len(snap.Assets),
		FetchedAt:  snap.FetchedAt.UTC(),
	})
}

func acceptedType(mt string) bool {
	switch mt {
	case "text/csv", "text/plain", "application/csv", "application/octet-stream":
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
