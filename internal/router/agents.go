package router

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/diogo/llmchat/internal/chat"
	"github.com/diogo/llmchat/internal/model"
)

// ModelAgents is an AgentManager backed by model backends. Agent names are
// matched with or without the leading "@".
type ModelAgents struct {
	agents map[string]model.Backend
}

// NewModelAgents binds backend to @assistant
func NewModelAgents(backend model.Backend) *ModelAgents {
	a := &ModelAgents{agents: make(map[string]model.Backend)}
	a.Bind(DefaultAgent, backend)
	return a
}

// Bind routes messages for agent to backend
func (a *ModelAgents) Bind(agent string, backend model.Backend) {
	a.agents[agentKey(agent)] = backend
}

// Agents lists the bound agent names, sorted
func (a *ModelAgents) Agents() []string {
	names := make([]string, 0, len(a.agents))
	for name := range a.agents {
		names = append(names, "@"+name)
	}
	sort.Strings(names)
	return names
}

// SendMessage sends content as a single user message to the agent's backend
func (a *ModelAgents) SendMessage(ctx context.Context, agent, content string) (string, error) {
	backend, ok := a.agents[agentKey(agent)]
	if !ok {
		return "", fmt.Errorf("unknown agent %s", agent)
	}
	return backend.Send(ctx, []chat.Message{{ID: 1, Origin: chat.User, Content: content}})
}

func agentKey(agent string) string {
	return strings.ToLower(strings.TrimPrefix(agent, "@"))
}
