// Package router implements the "#channel @agent message" line protocol:
// a line is addressed to an agent, recorded in the history and answered
// with "@agent: reply".
package router

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/diogo/llmchat/internal/history"
)

const (
	DefaultChannel = "#general"
	DefaultAgent   = "@assistant"

	// FailedResponse is printed in place of a reply when the agent fails
	FailedResponse = "Failed to retrieve response."
)

var routePattern = regexp.MustCompile(`^(#\w+)?\s*(@\w+)?\s*((?s).*)$`)

// Route is a parsed input line
type Route struct {
	Channel string
	Agent   string
	Content string
}

// Parse splits a line into channel, agent and content. Missing channel
// and agent fall back to #general and @assistant.
func Parse(line string) Route {
	r := Route{Channel: DefaultChannel, Agent: DefaultAgent, Content: line}
	m := routePattern.FindStringSubmatch(line)
	if m == nil {
		return r
	}
	if m[1] != "" {
		r.Channel = m[1]
	}
	if m[2] != "" {
		r.Agent = m[2]
	}
	r.Content = m[3]
	return r
}

// AgentManager answers messages addressed to an agent
type AgentManager interface {
	SendMessage(ctx context.Context, agent, content string) (string, error)
}

// HistoryAppender is where routed messages are recorded
type HistoryAppender interface {
	Append(entries ...history.Entry) error
}

// Router dispatches input lines to agents
type Router struct {
	agents  AgentManager
	history HistoryAppender
	out     io.Writer
	now     func() time.Time
}

// New creates a Router that prints replies to out
func New(agents AgentManager, h HistoryAppender, out io.Writer) *Router {
	return &Router{agents: agents, history: h, out: out, now: time.Now}
}

// RouteMessage records the line's content, asks the addressed agent for a
// reply and prints it. Agent failures are reported in place of the reply;
// the returned error only covers history and output failures.
func (r *Router) RouteMessage(ctx context.Context, line string) error {
	route := Parse(line)
	log.Debug().Str("channel", route.Channel).Str("agent", route.Agent).Msg("routing message")

	if err := r.history.Append(history.NewEntry(history.AuthorUser, r.now(), route.Content)); err != nil {
		return fmt.Errorf("failed to record message: %w", err)
	}

	reply, err := r.agents.SendMessage(ctx, route.Agent, route.Content)
	if err != nil {
		log.Error().Err(err).Str("agent", route.Agent).Msg("agent failed")
		reply = FailedResponse
	} else if err := r.history.Append(history.NewEntry(history.AuthorAssistant, r.now(), reply)); err != nil {
		return fmt.Errorf("failed to record reply: %w", err)
	}

	if _, err := fmt.Fprintf(r.out, "%s: %s\n", route.Agent, reply); err != nil {
		return err
	}
	return nil
}
