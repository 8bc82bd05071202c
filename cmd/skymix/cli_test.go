// Package main tests document the expected behavior of the skymix CLI.
//
// These are BLACK BOX tests - they test the CLI by executing the binary
// and checking stdout/stderr output.
//
// External dependencies mocked:
// - The XRPC API via the SKYMIX_API_URL env var
// - Session and config storage via the SKYMIX_CONFIG_DIR env var
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

var binaryPath string

// TestMain builds the binary once before running tests.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "skymix-test")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	binaryPath = filepath.Join(dir, "skymix")
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = "."
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

// runCLI executes the CLI binary with given arguments and environment.
func runCLI(t *testing.T, env map[string]string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)

	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	exitCode = 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if err != nil {
		t.Fatalf("failed to run command: %v", err)
	}

	return outBuf.String(), errBuf.String(), exitCode
}

// runCLISimple runs CLI without custom environment.
func runCLISimple(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	return runCLI(t, nil, args...)
}

// seedConfigDir creates a temp config dir with a saved session.
func seedConfigDir(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	session := `{"did":"did:plc:viewer","handle":"viewer.bsky.social","access_jwt":"test-jwt","refresh_jwt":"refresh-jwt"}`
	if err := os.WriteFile(filepath.Join(dir, "session.json"), []byte(session), 0600); err != nil {
		t.Fatal(err)
	}
	return dir
}

// timelinePost builds one post in the getTimeline response shape.
func timelinePost(uri, handle, text string) map[string]interface{} {
	return map[string]interface{}{
		"post": map[string]interface{}{
			"uri": uri,
			"cid": "bafy-" + handle,
			"author": map[string]interface{}{
				"did":    "did:plc:" + handle,
				"handle": handle + ".bsky.social",
			},
			"record": map[string]interface{}{
				"text":      text,
				"createdAt": "2024-06-01T09:58:00Z",
			},
		},
	}
}

// TestRootCommand_Help verifies help output shows available commands.
func TestRootCommand_Help(t *testing.T) {
	stdout, _, _ := runCLISimple(t, "--help")
	output := strings.ToLower(stdout)

	expects := []string{"skymix", "usage", "login", "feed", "browse", "mix"}
	for _, want := range expects {
		if !strings.Contains(output, want) {
			t.Errorf("help should contain %q, got:\n%s", want, stdout)
		}
	}
}

// TestRootCommand_Version verifies version output.
func TestRootCommand_Version(t *testing.T) {
	stdout, _, _ := runCLISimple(t, "--version")

	if !strings.Contains(stdout, "skymix version") {
		t.Errorf("version should show 'skymix version', got:\n%s", stdout)
	}
}

// TestLoginCommand_RequiresIdentifier verifies login needs a handle.
func TestLoginCommand_RequiresIdentifier(t *testing.T) {
	_, stderr, exitCode := runCLI(t, map[string]string{"SKYMIX_CONFIG_DIR": t.TempDir()}, "login")

	if exitCode == 0 {
		t.Error("should fail without an identifier argument")
	}
	if !strings.Contains(strings.ToLower(stderr), "identifier") {
		t.Errorf("error should mention identifier, got:\n%s", stderr)
	}
}

// TestLoginCommand_RequiresPassword verifies login refuses to proceed
// without an app password.
func TestLoginCommand_RequiresPassword(t *testing.T) {
	env := map[string]string{
		"SKYMIX_CONFIG_DIR":   t.TempDir(),
		"SKYMIX_APP_PASSWORD": "",
	}
	_, stderr, exitCode := runCLI(t, env, "login", "viewer.bsky.social")

	if exitCode == 0 {
		t.Error("should fail without an app password")
	}
	if !strings.Contains(strings.ToLower(stderr), "password") {
		t.Errorf("error should mention the app password, got:\n%s", stderr)
	}
}

// TestLoginCommand_SavesSession verifies login creates a session file.
func TestLoginCommand_SavesSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/xrpc/com.atproto.server.createSession" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"did":        "did:plc:viewer",
			"handle":     "viewer.bsky.social",
			"accessJwt":  "fresh-access",
			"refreshJwt": "fresh-refresh",
		})
	}))
	defer server.Close()

	configDir := t.TempDir()
	env := map[string]string{
		"SKYMIX_CONFIG_DIR":   configDir,
		"SKYMIX_API_URL":      server.URL,
		"SKYMIX_APP_PASSWORD": "abcd-efgh-ijkl-mnop",
	}

	stdout, stderr, exitCode := runCLI(t, env, "login", "viewer.bsky.social")

	if exitCode != 0 {
		t.Fatalf("login should succeed, got exit code %d, stderr:\n%s", exitCode, stderr)
	}
	if !strings.Contains(stdout, "viewer.bsky.social") {
		t.Errorf("output should confirm the handle, got:\n%s", stdout)
	}
	if _, err := os.Stat(filepath.Join(configDir, "session.json")); err != nil {
		t.Errorf("session file should exist after login: %v", err)
	}
}

// TestFeedCommand_RequiresLogin verifies feed fails without a session.
func TestFeedCommand_RequiresLogin(t *testing.T) {
	env := map[string]string{"SKYMIX_CONFIG_DIR": t.TempDir()}
	_, stderr, exitCode := runCLI(t, env, "feed")

	if exitCode == 0 {
		t.Error("should fail without a saved session")
	}
	if !strings.Contains(strings.ToLower(stderr), "login") {
		t.Errorf("error should point at 'skymix login', got:\n%s", stderr)
	}
}

// TestFeedCommand_DisplaysItems verifies feed fetches and displays posts.
// The XRPC API is mocked via a test server.
func TestFeedCommand_DisplaysItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/xrpc/app.bsky.feed.getTimeline" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"cursor": "next-page",
			"feed": []map[string]interface{}{
				timelinePost("at://did:plc:alice/app.bsky.feed.post/3kabc", "alice", "hello from the timeline"),
				timelinePost("at://did:plc:bob/app.bsky.feed.post/3kdef", "bob", "second post"),
			},
		})
	}))
	defer server.Close()

	env := map[string]string{
		"SKYMIX_CONFIG_DIR": seedConfigDir(t),
		"SKYMIX_API_URL":    server.URL,
	}

	stdout, stderr, exitCode := runCLI(t, env, "feed", "--limit", "10")

	if exitCode != 0 {
		t.Fatalf("feed command should succeed, got exit code %d, stderr:\n%s", exitCode, stderr)
	}
	if !strings.Contains(stdout, "hello from the timeline") {
		t.Errorf("output should contain the post text, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "alice.bsky.social") {
		t.Errorf("output should contain the author handle, got:\n%s", stdout)
	}
}

// TestFeedCommand_SavesPosition verifies --save persists the cursor so a
// later --resume run requests the next page.
func TestFeedCommand_SavesPosition(t *testing.T) {
	var cursors []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cursors = append(cursors, r.URL.Query().Get("cursor"))

		// A full page: fewer items than the requested limit would mark
		// the source exhausted and clear the saved position.
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit < 1 {
			t.Errorf("request should carry a positive limit, got %q", r.URL.Query().Get("limit"))
			limit = 1
		}
		posts := make([]map[string]interface{}, limit)
		for i := range posts {
			uri := fmt.Sprintf("at://did:plc:alice/app.bsky.feed.post/%d", i)
			posts[i] = timelinePost(uri, "alice", fmt.Sprintf("post %d", i))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"cursor": "page-two",
			"feed":   posts,
		})
	}))
	defer server.Close()

	env := map[string]string{
		"SKYMIX_CONFIG_DIR": seedConfigDir(t),
		"SKYMIX_API_URL":    server.URL,
	}

	if _, stderr, code := runCLI(t, env, "feed", "--limit", "5", "--save"); code != 0 {
		t.Fatalf("first run failed: %s", stderr)
	}
	if _, stderr, code := runCLI(t, env, "feed", "--limit", "5", "--resume"); code != 0 {
		t.Fatalf("second run failed: %s", stderr)
	}

	if len(cursors) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(cursors))
	}
	if cursors[0] != "" {
		t.Errorf("first request should have no cursor, got %q", cursors[0])
	}
	if cursors[1] != "page-two" {
		t.Errorf("resumed request should carry the saved cursor, got %q", cursors[1])
	}
}

// TestMixCommand_ShowsSources verifies the default mix is printed.
func TestMixCommand_ShowsSources(t *testing.T) {
	env := map[string]string{"SKYMIX_CONFIG_DIR": t.TempDir()}
	stdout, _, exitCode := runCLI(t, env, "mix")

	if exitCode != 0 {
		t.Fatalf("mix should succeed, got exit code %d", exitCode)
	}
	if !strings.Contains(stdout, "Following") || !strings.Contains(stdout, "100%") {
		t.Errorf("default mix should show Following at 100%%, got:\n%s", stdout)
	}
}

// TestMixCommand_AddAndWeight verifies mix edits survive round trips.
func TestMixCommand_AddAndWeight(t *testing.T) {
	env := map[string]string{"SKYMIX_CONFIG_DIR": t.TempDir()}

	uri := "at://did:plc:feedgen/app.bsky.feed.generator/science"
	if _, stderr, code := runCLI(t, env, "mix", "weight", "Following", "70"); code != 0 {
		t.Fatalf("weight failed: %s", stderr)
	}
	if _, stderr, code := runCLI(t, env, "mix", "add", "Science", "30", "--uri", uri); code != 0 {
		t.Fatalf("add failed: %s", stderr)
	}

	stdout, _, _ := runCLI(t, env, "mix")
	if !strings.Contains(stdout, "70%") || !strings.Contains(stdout, "Science") {
		t.Errorf("mix should show the edited sources, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "total 100%") {
		t.Errorf("mix should report the total share, got:\n%s", stdout)
	}
}

// TestMixCommand_RejectsBadPercent verifies validation runs on edits.
func TestMixCommand_RejectsBadPercent(t *testing.T) {
	env := map[string]string{"SKYMIX_CONFIG_DIR": t.TempDir()}
	_, _, exitCode := runCLI(t, env, "mix", "weight", "Following", "150")

	if exitCode == 0 {
		t.Error("should reject a percent above 100")
	}
}

// TestBrowseCommand_Help verifies browse help shows paging options.
func TestBrowseCommand_Help(t *testing.T) {
	stdout, _, _ := runCLISimple(t, "browse", "--help")
	output := strings.ToLower(stdout)

	expects := []string{"limit", "resume"}
	for _, want := range expects {
		if !strings.Contains(output, want) {
			t.Errorf("browse help should contain %q, got:\n%s", want, stdout)
		}
	}
}
