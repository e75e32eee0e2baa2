package server

import (
	"encoding/json"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/dukerupert/promptcard/internal/database"
	"github.com/dukerupert/promptcard/internal/model"
	"github.com/dukerupert/promptcard/internal/store"
	"github.com/dukerupert/promptcard/web"
	"golang.org/x/crypto/bcrypt"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	stores := Stores{
		Users:     store.NewUserStore(db),
		Questions: store.NewQuestionStore(db),
		Sessions:  store.NewSessionStore(db),
	}
	cfg := Config{
		SessionSecret: "test-secret",
		BcryptCost:    bcrypt.MinCost,
		Assets:        web.FS,
	}
	srv, err := New(stores, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

// newClient returns a client with a cookie jar that does not follow redirects.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func doForm(t *testing.T, c *http.Client, target string, values url.Values) *http.Response {
	t.Helper()
	resp, err := c.PostForm(target, values)
	if err != nil {
		t.Fatalf("POST %s: %v", target, err)
	}
	resp.Body.Close()
	return resp
}

func getBody(t *testing.T, c *http.Client, target string) (int, string) {
	t.Helper()
	resp, err := c.Get(target)
	if err != nil {
		t.Fatalf("GET %s: %v", target, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func getRandom(t *testing.T, c *http.Client, base string) (int, map[string]any) {
	t.Helper()
	req, _ := http.NewRequest("GET", base+"/api/questions/random", nil)
	req.Header.Set("Accept", "application/json")
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body
}

func expectRedirect(t *testing.T, resp *http.Response, want string) {
	t.Helper()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}
	if loc := resp.Header.Get("Location"); loc != want {
		t.Fatalf("Location = %q, want %q", loc, want)
	}
}

var editFormAction = regexp.MustCompile(`action="/questions/([^"]+)"`)

func TestQuestionLifecycle(t *testing.T) {
	ts := setupServer(t)
	c := newClient(t)
	const created = "What is your favorite childhood memory?"

	expectRedirect(t, doForm(t, c, ts.URL+"/signup", url.Values{
		"username": {"alice"},
		"password": {"secret123"},
	}), "/")

	status, body := getBody(t, c, ts.URL+"/")
	if status != http.StatusOK {
		t.Fatalf("home status = %d", status)
	}
	if !strings.Contains(body, "draw one of your 10 questions") {
		t.Fatal("expected 10 default questions on first visit")
	}

	expectRedirect(t, doForm(t, c, ts.URL+"/questions", url.Values{"text": {created}}), "/questions")

	_, body = getBody(t, c, ts.URL+"/questions")
	first := strings.Index(body, created)
	firstDefault := strings.Index(body, html.EscapeString(model.DefaultQuestions[0]))
	if first < 0 || firstDefault < 0 || first > firstDefault {
		t.Fatalf("expected new question before defaults (new=%d default=%d)", first, firstDefault)
	}
	m := editFormAction.FindStringSubmatch(body)
	if m == nil {
		t.Fatal("no edit form found")
	}
	createdID := m[1]

	allowed := map[string]bool{created: true}
	for _, q := range model.DefaultQuestions {
		allowed[q] = true
	}
	for range 50 {
		status, q := getRandom(t, c, ts.URL)
		if status != http.StatusOK {
			t.Fatalf("random status = %d", status)
		}
		text, _ := q["text"].(string)
		if !allowed[text] {
			t.Fatalf("random returned unexpected text %q", text)
		}
	}

	expectRedirect(t, doForm(t, c, ts.URL+"/questions/"+createdID, url.Values{
		"_method": {"DELETE"},
	}), "/questions")

	for range 50 {
		_, q := getRandom(t, c, ts.URL)
		if q["text"] == created {
			t.Fatal("deleted question returned by random")
		}
	}

	_, body = getBody(t, c, ts.URL+"/questions")
	if strings.Contains(body, created) {
		t.Error("deleted question still listed")
	}
	ids := map[string]bool{}
	for _, m := range editFormAction.FindAllStringSubmatch(body, -1) {
		ids[m[1]] = true
	}
	if len(ids) != len(model.DefaultQuestions) {
		t.Errorf("listed %d questions after delete, want %d", len(ids), len(model.DefaultQuestions))
	}
	for _, q := range model.DefaultQuestions {
		if !strings.Contains(body, html.EscapeString(q)) {
			t.Errorf("default question %q missing after delete", q)
		}
	}

	expectRedirect(t, doForm(t, c, ts.URL+"/logout", nil), "/")

	resp, err := c.Get(ts.URL + "/questions")
	if err != nil {
		t.Fatalf("GET /questions: %v", err)
	}
	resp.Body.Close()
	expectRedirect(t, resp, "/login")
}

func TestUpdateViaMethodOverride(t *testing.T) {
	ts := setupServer(t)
	alice := newClient(t)
	bob := newClient(t)

	doForm(t, alice, ts.URL+"/signup", url.Values{"username": {"alice"}, "password": {"secret123"}})
	doForm(t, bob, ts.URL+"/signup", url.Values{"username": {"bob"}, "password": {"secret456"}})
	doForm(t, alice, ts.URL+"/questions", url.Values{"text": {"Alice's first question"}})

	_, body := getBody(t, alice, ts.URL+"/questions")
	m := editFormAction.FindStringSubmatch(body)
	if m == nil {
		t.Fatal("no edit form found")
	}
	id := m[1]

	resp := doForm(t, bob, ts.URL+"/questions/"+id, url.Values{"_method": {"PUT"}, "text": {"Bob was here"}})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign update status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}

	expectRedirect(t, doForm(t, alice, ts.URL+"/questions/"+id, url.Values{
		"_method": {"PUT"},
		"text":    {"Alice's edited question"},
	}), "/questions")

	_, body = getBody(t, alice, ts.URL+"/questions")
	if !strings.Contains(body, html.EscapeString("Alice's edited question")) {
		t.Error("expected edited text on the list page")
	}
}

func TestRandomFillerForEmptyDeck(t *testing.T) {
	ts := setupServer(t)
	c := newClient(t)

	// Signing up without visiting the home page leaves the deck empty.
	doForm(t, c, ts.URL+"/signup", url.Values{"username": {"carol"}, "password": {"secret123"}})

	status, body := getRandom(t, c, ts.URL)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["text"] != model.FillerText {
		t.Errorf("text = %v, want %q", body["text"], model.FillerText)
	}
}

func TestProtectedRoutesAnonymous(t *testing.T) {
	ts := setupServer(t)
	c := newClient(t)

	status, _ := getRandom(t, c, ts.URL)
	if status != http.StatusUnauthorized {
		t.Errorf("random status = %d, want %d", status, http.StatusUnauthorized)
	}

	resp := doForm(t, c, ts.URL+"/questions", url.Values{"text": {"Sneaky question"}})
	expectRedirect(t, resp, "/login")
}

func TestPublicPages(t *testing.T) {
	ts := setupServer(t)
	c := newClient(t)

	for _, path := range []string{"/", "/signup", "/login", "/documentation", "/static/js/card.js", "/static/css/style.css"} {
		status, _ := getBody(t, c, ts.URL+path)
		if status != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", path, status, http.StatusOK)
		}
	}

	status, body := getBody(t, c, ts.URL+"/health")
	if status != http.StatusOK || !strings.Contains(body, `"status":"ok"`) {
		t.Errorf("health = %d %q", status, body)
	}
}

func TestLoginRateLimit(t *testing.T) {
	ts := setupServer(t)
	c := newClient(t)

	for i := range 10 {
		resp := doForm(t, c, ts.URL+"/login", url.Values{"username": {"alice"}, "password": {"wrong-pass"}})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("attempt %d status = %d, want %d", i+1, resp.StatusCode, http.StatusOK)
		}
	}

	resp := doForm(t, c, ts.URL+"/login", url.Values{"username": {"alice"}, "password": {"wrong-pass"}})
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("11th attempt status = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}
}
