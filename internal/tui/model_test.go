package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/diogo/llmchat/internal/chat"
	"github.com/diogo/llmchat/internal/render"
	"github.com/diogo/llmchat/internal/transcript"
)

type fakeSession struct {
	nextID int64
	sent   []chat.Message
}

func (s *fakeSession) ProducerName() string { return "fake" }

func (s *fakeSession) Send(origin chat.Origin, content string, parentID int64) chat.Message {
	s.nextID++
	msg := chat.Message{ID: s.nextID, Origin: origin, Content: content, ParentID: parentID, Producer: s}
	s.sent = append(s.sent, msg)
	return msg
}

type namedProducer string

func (p *namedProducer) ProducerName() string { return string(*p) }

func newTestModel(t *testing.T, models int) (Model, *fakeSession) {
	t.Helper()
	session := &fakeSession{}
	m := NewChatModel(session, Options{
		ModelName:    "gpt-4o-mini",
		Models:       models,
		ReplyTimeout: time.Second,
		Render:       render.DefaultOptions().WithStyle(render.StyleNoTTY),
	})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model), session
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	typed, ok := updated.(Model)
	if !ok {
		t.Fatal("Update should return Model type")
	}
	return typed, cmd
}

func typeAndEnter(t *testing.T, m Model, text string) (Model, tea.Cmd) {
	t.Helper()
	m.textarea.SetValue(text)
	return update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func TestModel_WindowSize(t *testing.T) {
	m, _ := newTestModel(t, 1)

	if !m.ready {
		t.Error("Model should be ready after WindowSizeMsg")
	}
	if m.width != 100 || m.height != 40 {
		t.Errorf("dimensions = %dx%d", m.width, m.height)
	}
	if m.viewport.Width != 96 {
		t.Errorf("viewport width = %d, want 96", m.viewport.Width)
	}
}

func TestModel_SendAndReceive(t *testing.T) {
	m, session := newTestModel(t, 1)

	m, cmd := typeAndEnter(t, m, "What is Go?")
	if cmd == nil {
		t.Error("sending should start the wait commands")
	}
	if len(session.sent) != 1 || session.sent[0].Content != "What is Go?" || session.sent[0].ParentID != 0 {
		t.Fatalf("sent = %+v", session.sent)
	}
	if !m.loading || m.pendingID != 1 {
		t.Errorf("loading = %v, pendingID = %d", m.loading, m.pendingID)
	}

	// the chat echoes our own message back; it must not be shown twice
	m, _ = update(t, m, incomingMsg{msg: session.sent[0]})
	if len(m.messages) != 1 {
		t.Fatalf("own message shown twice: %d messages", len(m.messages))
	}

	gpt := namedProducer("gpt-4o-mini")
	reply := chat.Message{ID: 2, Origin: chat.Assistant, Content: "A language.", ParentID: 1, Producer: &gpt}
	m, _ = update(t, m, incomingMsg{msg: reply})

	if m.loading {
		t.Error("Model should stop loading after the reply")
	}
	if len(m.messages) != 2 || m.messages[1].producer != "gpt-4o-mini" || m.messages[1].late {
		t.Errorf("messages = %+v", m.messages)
	}
	if m.lastReplyID != 2 || m.lastReply != "A language." {
		t.Errorf("lastReply = (%d, %q)", m.lastReplyID, m.lastReply)
	}

	// the next prompt continues the thread
	m, _ = typeAndEnter(t, m, "Who made it?")
	if session.sent[1].ParentID != 2 {
		t.Errorf("follow-up parent = %d, want 2", session.sent[1].ParentID)
	}
}

func TestModel_WaitsForEveryModel(t *testing.T) {
	m, _ := newTestModel(t, 2)
	m, _ = typeAndEnter(t, m, "hi")

	a, b := namedProducer("a"), namedProducer("b")
	m, _ = update(t, m, incomingMsg{msg: chat.Message{ID: 2, Origin: chat.Assistant, Content: "from a", ParentID: 1, Producer: &a}})
	if !m.loading {
		t.Error("still waiting for the second model")
	}
	if !strings.Contains(m.renderLoadingAnimation(), "1/2") {
		t.Errorf("loading text = %q", m.renderLoadingAnimation())
	}

	m, _ = update(t, m, incomingMsg{msg: chat.Message{ID: 3, Origin: chat.Assistant, Content: "from b", ParentID: 1, Producer: &b}})
	if m.loading {
		t.Error("both replies arrived")
	}
}

func TestModel_LateReply(t *testing.T) {
	m, _ := newTestModel(t, 1)
	m, _ = typeAndEnter(t, m, "first")
	m, _ = update(t, m, replyTimeoutMsg{parentID: 1})

	if m.loading || m.err == nil {
		t.Fatalf("timeout should stop loading with an error, loading=%v err=%v", m.loading, m.err)
	}

	m, _ = typeAndEnter(t, m, "second")
	slow := namedProducer("slow")
	m, _ = update(t, m, incomingMsg{msg: chat.Message{ID: 3, Origin: chat.Assistant, Content: "answer to first", ParentID: 1, Producer: &slow}})

	if !m.loading {
		t.Error("a late reply must not end the current wait")
	}
	last := m.messages[len(m.messages)-1]
	if !last.late {
		t.Error("reply to an earlier prompt should be marked late")
	}
	if m.lastReplyID != 0 {
		t.Errorf("late reply must not parent the next prompt, lastReplyID = %d", m.lastReplyID)
	}
}

func TestModel_StaleTimeoutIgnored(t *testing.T) {
	m, _ := newTestModel(t, 1)
	m, _ = typeAndEnter(t, m, "first")
	m, _ = update(t, m, replyTimeoutMsg{parentID: 99})

	if !m.loading || m.err != nil {
		t.Error("timeout for another prompt should be ignored")
	}
}

func TestModel_Commands(t *testing.T) {
	m, session := newTestModel(t, 1)

	var copied string
	m.opts.Copy = func(s string) error {
		copied = s
		return nil
	}

	m, _ = typeAndEnter(t, m, "/copy")
	if m.err == nil {
		t.Error("/copy without a reply should report an error")
	}

	m.lastReply = "reply"
	m, _ = typeAndEnter(t, m, "/copy")
	if copied != "reply" || m.notice == "" {
		t.Errorf("copied = %q, notice = %q", copied, m.notice)
	}

	m.opts.Copy = func(string) error { return errors.New("no clipboard") }
	m, _ = typeAndEnter(t, m, "/copy")
	if m.err == nil {
		t.Error("clipboard failure should be reported")
	}

	m, _ = typeAndEnter(t, m, "/bogus")
	if m.err == nil || !strings.Contains(m.err.Error(), "/bogus") {
		t.Errorf("err = %v", m.err)
	}

	m.messages = []chatMessage{{origin: chat.User, content: "x"}}
	m, _ = typeAndEnter(t, m, "/clear")
	if len(m.messages) != 0 {
		t.Error("/clear should empty the view")
	}

	_, cmd := typeAndEnter(t, m, "/exit")
	if cmd == nil {
		t.Error("/exit should quit")
	}
	if len(session.sent) != 0 {
		t.Errorf("commands must not be sent to the chat, got %+v", session.sent)
	}
}

func TestModel_EscapeStopsWaiting(t *testing.T) {
	m, _ := newTestModel(t, 1)
	m, _ = typeAndEnter(t, m, "hi")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEscape})
	if m.loading {
		t.Error("Escape should stop waiting")
	}
	if cmd == nil {
		t.Log("no command after Escape")
	}
}

func TestModel_EnterWhileLoadingIgnored(t *testing.T) {
	m, session := newTestModel(t, 1)
	m, _ = typeAndEnter(t, m, "one")
	_, _ = typeAndEnter(t, m, "two")

	if len(session.sent) != 1 {
		t.Errorf("sent %d messages while waiting", len(session.sent))
	}
}

func TestModel_AnimationTick(t *testing.T) {
	m, _ := newTestModel(t, 1)
	m.loading = true

	m, _ = update(t, m, animationTickMsg(time.Now()))
	if m.animationFrame != 1 {
		t.Errorf("animationFrame = %d", m.animationFrame)
	}
}

func TestModel_View(t *testing.T) {
	var notReady Model
	if !strings.Contains(notReady.View(), "Initializing") {
		t.Error("View before the first resize should show the init message")
	}

	m, _ := newTestModel(t, 1)
	if !strings.Contains(m.View(), "Welcome to llmchat") {
		t.Error("empty chat should show the welcome screen")
	}

	m, _ = typeAndEnter(t, m, "hello")
	sys := chat.Message{ID: 5, Origin: chat.System, Content: "be brief"}
	m, _ = update(t, m, incomingMsg{msg: sys})

	view := m.View()
	for _, want := range []string{"gpt-4o-mini", "hello", "be brief"} {
		if !strings.Contains(view, want) {
			t.Errorf("view should contain %q", want)
		}
	}
}

func TestFormatError(t *testing.T) {
	if FormatError(nil) != "" {
		t.Error("nil error should format as empty")
	}
	if out := FormatError(errors.New("boom")); !strings.Contains(out, "boom") {
		t.Errorf("FormatError() = %q", out)
	}
}

type fakeLister struct {
	sessions []transcript.SessionInfo
	err      error
}

func (f fakeLister) Sessions(context.Context) ([]transcript.SessionInfo, error) {
	return f.sessions, f.err
}

func TestSessionSelector(t *testing.T) {
	lister := fakeLister{sessions: []transcript.SessionInfo{
		{ID: "s1", Started: time.Now(), Messages: 3},
		{ID: "s2", Started: time.Now().Add(-time.Hour), Messages: 1},
	}}
	m := NewSessionSelectorModel(lister)

	loaded := m.Init()()
	var model tea.Model = m
	model, _ = model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	model, _ = model.Update(loaded)

	if !strings.Contains(model.View(), "s2") {
		t.Errorf("view should list sessions: %s", model.View())
	}

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyDown})
	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Error("Enter should quit the selector")
	}

	info, ok := model.(SessionSelectorModel).Result()
	if !ok || info.ID != "s2" {
		t.Errorf("Result() = (%+v, %v)", info, ok)
	}
}

func TestSessionSelector_Error(t *testing.T) {
	m := NewSessionSelectorModel(fakeLister{err: errors.New("db locked")})

	var model tea.Model = m
	model, _ = model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	model, _ = model.Update(m.Init()())

	if !strings.Contains(model.View(), "db locked") {
		t.Errorf("view should show the error: %s", model.View())
	}
	if _, ok := model.(SessionSelectorModel).Result(); ok {
		t.Error("nothing was selected")
	}
}
