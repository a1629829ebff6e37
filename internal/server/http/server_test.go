package httpserver

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rzbill/canvass/internal/auth"
	cfgpkg "github.com/rzbill/canvass/internal/config"
	"github.com/rzbill/canvass/internal/ledger"
	"github.com/rzbill/canvass/internal/mailbox"
	"github.com/rzbill/canvass/internal/notify"
	"github.com/rzbill/canvass/internal/runtime"
	clientsvc "github.com/rzbill/canvass/internal/services/clients"
	surveysvc "github.com/rzbill/canvass/internal/services/surveys"
	pebblestore "github.com/rzbill/canvass/internal/storage/pebble"
	"github.com/rzbill/canvass/pkg/log"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	rt, err := runtime.Open(runtime.Options{
		DataDir: t.TempDir(),
		Fsync:   pebblestore.FsyncModeNever,
		Config:  cfgpkg.Default(),
	})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })

	logger := log.NewLogger(log.WithLevel(log.FatalLevel))
	reg := mailbox.NewRegistry()
	bus := notify.NewBus(rt.Repo(), notify.NewMailboxTransport(reg), logger)
	verifier := auth.AcceptAll{}
	deps := Deps{
		Clients:  clientsvc.New(rt.Repo(), verifier, logger),
		Surveys:  surveysvc.New(rt.Repo(), ledger.New(rt.Repo(), 3), bus, verifier, logger),
		Bus:      bus,
		Registry: reg,
	}
	ts := httptest.NewServer(New(rt, deps, logger).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, clientID string, body any) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if clientID != "" {
		req.Header.Set("X-User-ID", clientID)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, out.Bytes()
}

func register(t *testing.T, ts *httptest.Server, name string) string {
	t.Helper()
	resp, body := doJSON(t, ts, http.MethodPost, "/v1/register", "", map[string]string{
		"name": name, "publicKey": "pk-" + name,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", name, resp.StatusCode, body)
	}
	var c struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &c); err != nil || c.ID == "" {
		t.Fatalf("register payload %s: %v", body, err)
	}
	return c.ID
}

func createSurvey(t *testing.T, ts *httptest.Server, creator string) string {
	t.Helper()
	resp, body := doJSON(t, ts, http.MethodPost, "/v1/surveys", creator, map[string]any{
		"title":    "team lunch",
		"location": "hq",
		"dueDate":  time.Now().Add(time.Hour).Format(time.RFC3339),
		"options":  []string{"x", "y"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create survey: status %d body %s", resp.StatusCode, body)
	}
	var v surveysvc.View
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("survey payload: %v", err)
	}
	return v.ID
}

func vote(t *testing.T, ts *httptest.Server, clientID, surveyID, option string) (*http.Response, string) {
	t.Helper()
	resp, body := doJSON(t, ts, http.MethodPost, "/v1/vote", clientID, map[string]string{
		"surveyId": surveyID, "chosenOption": option,
	})
	var out struct {
		Status string `json:"status"`
	}
	_ = json.Unmarshal(body, &out)
	return resp, out.Status
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := doJSON(t, ts, http.MethodPost, "/v1/register", "", map[string]string{"name": ""})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank register: status %d", resp.StatusCode)
	}
}

func TestLoginRequiresIdentityHeader(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := doJSON(t, ts, http.MethodPost, "/v1/login", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("want 401 without identity, got %d", resp.StatusCode)
	}

	id := register(t, ts, "alice")
	resp, _ = doJSON(t, ts, http.MethodPost, "/v1/login", id, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, ts, http.MethodPost, "/v1/login", "ghost", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown client login: status %d", resp.StatusCode)
	}
}

func TestSurveyVoteRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	a := register(t, ts, "alice")
	b := register(t, ts, "bob")
	c := register(t, ts, "carol")
	d := register(t, ts, "dave")

	sv := createSurvey(t, ts, a)

	resp, body := doJSON(t, ts, http.MethodGet, "/v1/surveys", b, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", resp.StatusCode)
	}
	var views []surveysvc.View
	if err := json.Unmarshal(body, &views); err != nil || len(views) != 1 {
		t.Fatalf("list payload %s: %v", body, err)
	}
	if views[0].CreatedBy != "alice" {
		t.Fatalf("createdBy should be the display name, got %q", views[0].CreatedBy)
	}

	// consult before voting is forbidden
	resp, _ = doJSON(t, ts, http.MethodGet, "/v1/surveys/"+sv, b, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("consult before vote: status %d", resp.StatusCode)
	}

	for _, voter := range []string{b, c} {
		resp, status := vote(t, ts, voter, sv, "x")
		if resp.StatusCode != http.StatusCreated || status != "ok" {
			t.Fatalf("vote: status %d %q", resp.StatusCode, status)
		}
	}

	// duplicate is success-shaped with a distinguishable status
	resp, status := vote(t, ts, b, sv, "y")
	if resp.StatusCode != http.StatusCreated || status != "already voted" {
		t.Fatalf("duplicate vote: status %d %q", resp.StatusCode, status)
	}

	// third distinct voter reaches quorum and closes
	resp, status = vote(t, ts, d, sv, "y")
	if resp.StatusCode != http.StatusCreated || status != "ok" {
		t.Fatalf("closing vote: status %d %q", resp.StatusCode, status)
	}

	resp, body = doJSON(t, ts, http.MethodGet, "/v1/surveys/"+sv, b, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("consult: status %d body %s", resp.StatusCode, body)
	}
	var tally surveysvc.Tally
	if err := json.Unmarshal(body, &tally); err != nil {
		t.Fatalf("tally payload: %v", err)
	}
	if !tally.Closed {
		t.Fatalf("survey should be closed at quorum")
	}
	if len(tally.Votes["x"]) != 2 || len(tally.Votes["y"]) != 1 {
		t.Fatalf("tally votes: %+v", tally.Votes)
	}

	// votes after close are rejected
	if resp, _ := vote(t, ts, a, sv, "x"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("vote on closed survey: status %d", resp.StatusCode)
	}

	// unknown option
	sv2 := createSurvey(t, ts, a)
	if resp, _ := vote(t, ts, b, sv2, "zzz"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown option: status %d", resp.StatusCode)
	}
	// unknown survey
	if resp, _ := vote(t, ts, b, "nope", "x"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown survey: status %d", resp.StatusCode)
	}
}

type frame struct {
	Type string
	Data string
}

func readFrame(t *testing.T, br *bufio.Reader) frame {
	t.Helper()
	var f frame
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			t.Fatalf("read frame: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if f.Type != "" {
				return f
			}
		case strings.HasPrefix(line, "event: "):
			f.Type = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			f.Data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestEventsStream(t *testing.T) {
	ts := newTestServer(t)
	a := register(t, ts, "alice")

	resp, err := ts.Client().Get(ts.URL + "/v1/events/" + a)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type %q", ct)
	}
	br := bufio.NewReader(resp.Body)

	if f := readFrame(t, br); f.Type != mailbox.TypeWelcome || f.Data != "connected" {
		t.Fatalf("welcome frame: %+v", f)
	}

	if r2, _ := doJSON(t, ts, http.MethodGet, "/v1/ping", "", nil); r2.StatusCode != http.StatusOK {
		t.Fatalf("ping: status %d", r2.StatusCode)
	}
	f := readFrame(t, br)
	if f.Type != mailbox.TypePing || !strings.HasPrefix(f.Data, "pong ") {
		t.Fatalf("ping frame: %+v", f)
	}

	createSurvey(t, ts, a)
	if f := readFrame(t, br); f.Type != mailbox.TypeNewSurvey {
		t.Fatalf("new-survey frame: %+v", f)
	}
}

func TestEventsStreamFilter(t *testing.T) {
	ts := newTestServer(t)
	a := register(t, ts, "alice")

	expr := url.QueryEscape(`type == "new-survey"`)
	resp, err := ts.Client().Get(fmt.Sprintf("%s/v1/events/%s?filter=%s", ts.URL, a, expr))
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer resp.Body.Close()
	br := bufio.NewReader(resp.Body)

	if f := readFrame(t, br); f.Type != mailbox.TypeWelcome {
		t.Fatalf("welcome frame: %+v", f)
	}

	// ping is dropped by the filter; only new-survey comes out
	doJSON(t, ts, http.MethodGet, "/v1/ping", "", nil)
	createSurvey(t, ts, a)
	if f := readFrame(t, br); f.Type != mailbox.TypeNewSurvey {
		t.Fatalf("filtered stream leaked %+v", f)
	}
}

func TestEventsUnknownClient(t *testing.T) {
	ts := newTestServer(t)
	resp, err := ts.Client().Get(ts.URL + "/v1/events/ghost")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown client stream: status %d", resp.StatusCode)
	}
}

func TestEventsBadFilter(t *testing.T) {
	ts := newTestServer(t)
	a := register(t, ts, "alice")
	resp, err := ts.Client().Get(ts.URL + "/v1/events/" + a + "?filter=" + url.QueryEscape("nonsense ==="))
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad filter: status %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	resp, body := doJSON(t, ts, http.MethodGet, "/v1/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: status %d body %s", resp.StatusCode, body)
	}
}
