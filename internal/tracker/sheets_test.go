package tracker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/content-agent/internal/config"
	"github.com/content-agent/internal/models"
	"github.com/content-agent/pkg/logger"
)

// fakeSheets records write calls and serves column A from rows
type fakeSheets struct {
	mu     sync.Mutex
	rows   [][]any
	calls  []string
	bodies []map[string]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	body := map[string]any{}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &body)
	}
	f.bodies = append(f.bodies, body)

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/"):
		_ = json.NewEncoder(w).Encode(map[string]any{"values": f.rows})
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sheets": []map[string]any{{"properties": map[string]any{"title": "Content"}}},
		})
	default:
		_, _ = w.Write([]byte(`{}`))
	}
}

func newTestTracker(t *testing.T, fake *fakeSheets) *SheetsTracker {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	tr, err := NewSheetsTracker(context.Background(), config.TrackerConfig{
		Enabled:       true,
		SpreadsheetID: "sheet-1",
	}, logger.Nop(), option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	require.NoError(t, err)
	return tr
}

func TestNewSheetsTracker_Disabled(t *testing.T) {
	tr, err := NewSheetsTracker(context.Background(), config.TrackerConfig{}, logger.Nop())
	require.NoError(t, err)
	assert.Nil(t, tr)
}

func TestNewSheetsTracker_NoCredentials(t *testing.T) {
	_, err := NewSheetsTracker(context.Background(), config.TrackerConfig{Enabled: true, SpreadsheetID: "x"}, logger.Nop())
	assert.Error(t, err)
}

func TestDraftCreated(t *testing.T) {
	fake := &fakeSheets{}
	tr := newTestTracker(t, fake)

	draft := &models.Draft{ID: 7, Title: "Go generics", FocusKeywords: models.StringSlice{"go", "generics"}}
	idea := &models.Idea{ID: 3, Source: models.IdeaSourceAI}
	require.NoError(t, tr.DraftCreated(context.Background(), draft, idea))

	require.Len(t, fake.calls, 1)
	assert.True(t, strings.HasSuffix(fake.calls[0], ":append"), fake.calls[0])

	values := fake.bodies[0]["values"].([]any)
	row := values[0].([]any)
	assert.Equal(t, float64(7), row[0])
	assert.Equal(t, float64(3), row[1])
	assert.Equal(t, "Go generics", row[2])
	assert.Equal(t, "ai_generated", row[3])
	assert.Equal(t, StatusDrafted, row[4])
	assert.Equal(t, "go, generics", row[5])
}

func TestDraftPublished_UpdatesMatchingRow(t *testing.T) {
	fake := &fakeSheets{rows: [][]any{{"Draft ID"}, {"5"}, {"7"}}}
	tr := newTestTracker(t, fake)

	now := time.Now()
	draft := &models.Draft{ID: 7, PublishedAt: &now, RemoteURL: "https://blog.example.com/go"}
	require.NoError(t, tr.DraftPublished(context.Background(), draft))

	require.Len(t, fake.calls, 2)
	assert.True(t, strings.HasSuffix(fake.calls[1], "values:batchUpdate"), fake.calls[1])

	data := fake.bodies[1]["data"].([]any)
	ranges := map[string]any{}
	for _, d := range data {
		vr := d.(map[string]any)
		ranges[vr["range"].(string)] = vr["values"].([]any)[0].([]any)[0]
	}
	assert.Equal(t, StatusPublished, ranges["Content!E3"])
	assert.Equal(t, "https://blog.example.com/go", ranges["Content!I3"])
	assert.Contains(t, ranges, "Content!K3")
}

func TestDraftScheduled_MissingRow(t *testing.T) {
	fake := &fakeSheets{rows: [][]any{{"Draft ID"}}}
	tr := newTestTracker(t, fake)

	at := time.Now().Add(time.Hour)
	err := tr.DraftScheduled(context.Background(), &models.Draft{ID: 9, ScheduledFor: &at})
	assert.ErrorContains(t, err, "not found")
}

func TestInitializeSheet_WritesHeaders(t *testing.T) {
	fake := &fakeSheets{}
	tr := newTestTracker(t, fake)

	require.NoError(t, tr.InitializeSheet(context.Background()))

	// spreadsheet get, header read, header write
	require.Len(t, fake.calls, 3)
	assert.Equal(t, http.MethodPut, strings.SplitN(fake.calls[2], " ", 2)[0])
}
