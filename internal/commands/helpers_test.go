package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/diogo/llmchat/internal/chat"
	"github.com/diogo/llmchat/internal/fetch"
	"github.com/diogo/llmchat/internal/logging"
	"github.com/diogo/llmchat/internal/transcript"
	"github.com/diogo/llmchat/internal/tui"
)

const (
	testOpenAIURL    = "http://openai.test"
	testAnthropicURL = "http://anthropic.test"

	openAIReply    = `{"choices":[{"message":{"role":"assistant","content":"Hi there"}}]}`
	anthropicReply = `{"content":[{"type":"text","text":"Bonjour"}],"role":"assistant"}`
	openAIModels   = `{"data":[{"id":"gpt-4o"},{"id":"gpt-4o-mini"},{"id":"o1-mini"}]}`
	claudeModels   = `{"data":[{"id":"claude-3-5-haiku-latest"},{"id":"claude-3-opus-latest"}]}`
)

type request struct {
	method  string
	url     string
	headers map[string]string
	payload string
}

// fakeFetch answers by exact URL and records every request
type fakeFetch struct {
	mu       sync.Mutex
	requests []request
	status   int
	bodies   map[string]string
	err      error
}

func newFakeFetch() *fakeFetch {
	return &fakeFetch{
		status: 200,
		bodies: map[string]string{
			testOpenAIURL + "/v1/chat/completions":     openAIReply,
			testOpenAIURL + "/v1/models":               openAIModels,
			testAnthropicURL + "/v1/messages":          anthropicReply,
			testAnthropicURL + "/v1/models?limit=1000": claudeModels,
		},
	}
}

func (f *fakeFetch) do(method, url string, headers []fetch.Header, payload string) (*fetch.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	hdrs := make(map[string]string)
	for _, h := range headers {
		hdrs[h.Key] = h.Value
	}
	f.requests = append(f.requests, request{method: method, url: url, headers: hdrs, payload: payload})

	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.bodies[url]
	if !ok {
		return &fetch.Response{StatusCode: 404, Body: []byte(`{"error":{"message":"not found"}}`)}, nil
	}
	return &fetch.Response{StatusCode: f.status, Body: []byte(body)}, nil
}

func (f *fakeFetch) Post(_ context.Context, url string, headers []fetch.Header, payload any) (*fetch.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return f.do("POST", url, headers, string(data))
}

func (f *fakeFetch) Get(_ context.Context, url string, headers []fetch.Header) (*fetch.Response, error) {
	return f.do("GET", url, headers, "")
}

func (f *fakeFetch) posts() []request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []request
	for _, r := range f.requests {
		if r.method == "POST" {
			out = append(out, r)
		}
	}
	return out
}

// fakeTUI records how it was started
type fakeTUI struct {
	chatOpts   *tui.Options
	selected   transcript.SessionInfo
	confirm    bool
	selectorOn bool
}

func (f *fakeTUI) RunChat(_ *chat.Chat, opts tui.Options) error {
	f.chatOpts = &opts
	return nil
}

func (f *fakeTUI) RunSessionSelector(archive tui.SessionLister) (transcript.SessionInfo, bool, error) {
	f.selectorOn = true
	if f.selected.ID == "" {
		sessions, err := archive.Sessions(context.Background())
		if err != nil || len(sessions) == 0 {
			return transcript.SessionInfo{}, false, err
		}
		f.selected = sessions[0]
	}
	return f.selected, f.confirm, nil
}

// testEnv is an isolated command environment
type testEnv struct {
	t         *testing.T
	dir       string
	config    string
	history   string
	fetch     *fakeFetch
	tui       *fakeTUI
	env       map[string]string
	clipboard []string
	terminal  bool
}

func newTestEnv(t *testing.T, extraConfig ...string) *testEnv {
	t.Helper()

	dir := t.TempDir()
	e := &testEnv{
		t:       t,
		dir:     dir,
		config:  filepath.Join(dir, "config.toml"),
		history: filepath.Join(dir, "chat_history.json"),
		fetch:   newFakeFetch(),
		tui:     &fakeTUI{confirm: true},
		env: map[string]string{
			"OPENAI_API_KEY":    "sk-test-openai",
			"ANTHROPIC_API_KEY": "sk-ant-test",
		},
	}

	cfg := fmt.Sprintf(`default_model = "gpt-4o-mini"
openai_base_url = %q
anthropic_base_url = %q
reply_timeout = "5s"
request_timeout = "5s"
history_file = %q
`, testOpenAIURL, testAnthropicURL, e.history)
	cfg += strings.Join(extraConfig, "\n")
	if err := os.WriteFile(e.config, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}

	oldDeps := deps
	deps = &Dependencies{
		Fetch: e.fetch,
		Lookup: func(key string) (string, bool) {
			v, ok := e.env[key]
			return v, ok
		},
		Clipboard: func(s string) error {
			e.clipboard = append(e.clipboard, s)
			return nil
		},
		IsTerminal: func() bool { return e.terminal },
		TUI:        e.tui,
	}
	resetFlags()
	t.Cleanup(func() {
		deps = oldDeps
		resetFlags()
		logging.Discard()
	})
	return e
}

// resetFlags clears the package-level flag variables between runs
func resetFlags() {
	modelFlag, maxTokensFlag = "", 0
	openAIKeyFlag, anthropicKeyFlag = "", ""
	verboseFlag, configFlag = false, ""
	outputFlag, fileFlag, promptFlag = "", "", ""
	copyFlag, listFlag = false, false
	tuiFlag, systemFlag, noHistoryFlag = false, "", false
	agentFlags = nil
	historyMarkdownFlag, configForceFlag = false, false
	_ = rootCmd.Flags().Set("version", "false")
}

// run executes the root command with args and stdin
func (e *testEnv) run(stdin string, args ...string) (string, string, error) {
	e.t.Helper()

	var out, errOut bytes.Buffer
	rootCmd.SetArgs(append(args, "--config", e.config))
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	defer func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	err := rootCmd.Execute()
	resetFlags()
	return out.String(), errOut.String(), err
}
