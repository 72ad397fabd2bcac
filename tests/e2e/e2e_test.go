package e2e_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lenra-io/lenra-cli/internal/domain"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build binary before running tests
	dir, err := os.MkdirTemp("", "lenra-e2e")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	binaryPath = filepath.Join(dir, "lenra")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/lenra")
	if out, err := cmd.CombinedOutput(); err != nil {
		panic("build failed: " + string(out))
	}

	os.Exit(m.Run())
}

func fixturePath(elem ...string) string {
	abs, _ := filepath.Abs(filepath.Join(append([]string{"../../testdata"}, elem...)...))
	return abs
}

// serveFixture serves testdata/apps/<name> as a Lenra app: the empty request
// returns manifest.json, a view or widget request returns views/<name>.json.
func serveFixture(t *testing.T, name string) string {
	t.Helper()
	root := fixturePath("apps", name)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
			return
		}
		file := filepath.Join(root, "manifest.json")
		view, _ := req["view"].(string)
		if view == "" {
			view, _ = req["widget"].(string)
		}
		if view != "" {
			file = filepath.Join(root, "views", view+".json")
		}
		data, err := os.ReadFile(file)
		if err != nil {
			http.Error(w, `{"error":"unknown view"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "LENRA_APP_URL=", "LENRA_LOG_LEVEL=warn")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
	}
	return stdout.String(), stderr.String(), exitCode
}

// --- Check Tests ---

func TestE2E_CheckRootView(t *testing.T) {
	url := serveFixture(t, "hello")
	out, _, code := run(t, "check", "--url", url, "--path", fixturePath("apps", "hello"))
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "/: ok")
	assert.Contains(t, out, "PASS")
}

func TestE2E_CheckRoutesWithConfig(t *testing.T) {
	url := serveFixture(t, "routes")
	out, stderr, code := run(t, "check", "--url", url, "--path", fixturePath("apps", "routes"))
	assert.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "/counter: ok")
	assert.Contains(t, out, "/api/stats: ok")
	assert.Contains(t, out, "4 checkers")
}

func TestE2E_CheckJSON(t *testing.T) {
	url := serveFixture(t, "routes")
	out, _, code := run(t, "check", "--url", url, "--path", fixturePath("apps", "routes"), "--json", "--parallel")
	assert.Equal(t, 0, code)

	var report domain.RunReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, domain.StatusPass, report.Status)
	assert.True(t, report.Strict)
	require.Len(t, report.Checkers, 4)

	var rules []string
	for _, r := range report.Checkers[2].Rules {
		rules = append(rules, r.Name)
	}
	assert.Equal(t, []string{"resultSchema", "hasTwoChildren"}, rules)
}

func TestE2E_CheckBrokenApp(t *testing.T) {
	url := serveFixture(t, "broken")
	out, stderr, code := run(t, "check", "--url", url, "--path", fixturePath("apps", "broken"))
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "declared more than once")
	assert.Contains(t, out, "not an absolute path")
	assert.Contains(t, out, "settings: error")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, stderr, "Error: check fail")
}

func TestE2E_CheckBrokenAppIgnored(t *testing.T) {
	url := serveFixture(t, "broken")
	_, _, code := run(t, "check", "--url", url, "--path", fixturePath("apps", "broken"),
		"--ignore", "settings", "--ignore", "manifest:uniquePaths,manifest:absolutePaths", "--strict")
	assert.Equal(t, 0, code)
}

func TestE2E_CheckTemplate(t *testing.T) {
	url := serveFixture(t, "template")
	out, _, code := run(t, "check", "template", "--url", url, "--path", fixturePath("apps", "template"))
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "manifest: ok")
	assert.Contains(t, out, "view: ok")
}

func TestE2E_CheckUnreachableApp(t *testing.T) {
	_, stderr, code := run(t, "check", "--url", "http://127.0.0.1:1", "--path", t.TempDir())
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "fetching manifest")
}

func TestE2E_CheckList(t *testing.T) {
	out, _, code := run(t, "check", "--list", "--path", fixturePath("apps", "routes"))
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "<route>:resultSchema")
	assert.Contains(t, out, "<route>:hasTwoChildren")
}

// --- Match Tests ---

func TestE2E_MatchEqual(t *testing.T) {
	out, _, code := run(t, "match", fixturePath("match", "actual.json"), fixturePath("match", "expected.yaml"))
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Values match.")
}

func TestE2E_MatchDifferent(t *testing.T) {
	out, _, code := run(t, "match", fixturePath("match", "actual.json"), fixturePath("match", "different.yaml"))
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "children.0.value")
	assert.Contains(t, out, "mainAxisAlignment")
	assert.Contains(t, out, "spacing")
}

// --- Init Test ---

func TestE2E_Init(t *testing.T) {
	dir := t.TempDir()
	out, _, code := run(t, "init", dir)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Created .lenra-check.yaml")
	assert.FileExists(t, filepath.Join(dir, ".lenra-check.yaml"))
}

// --- Version Test ---

func TestE2E_Version(t *testing.T) {
	out, _, code := run(t, "version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "lenra")
}
