package model

import (
	"context"
	"errors"
	"testing"
	"time"

	apierrors "github.com/diogo/llmchat/internal/errors"
)

// mockProvider serves the names in serves and fails others with err
type mockProvider struct {
	name   string
	serves map[string]bool
	err    error
	models []string
	delay  time.Duration

	calls int
}

func (p *mockProvider) Name() string { return p.name }

func (p *mockProvider) ConnectToModel(name string) (*Model, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	if !p.serves[name] {
		return nil, apierrors.NewModelNotFoundError(p.name, name)
	}
	return New(&echoBackend{name: name}), nil
}

func (p *mockProvider) ListModels(ctx context.Context) []string {
	select {
	case <-time.After(p.delay):
	case <-ctx.Done():
		return nil
	}
	return p.models
}

func TestResolve_FallsBackOnNotFound(t *testing.T) {
	first := &mockProvider{name: "first"}
	second := &mockProvider{name: "second", serves: map[string]bool{"X": true}}

	m, err := Resolve([]Provider{first, second}, "X")
	if err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}
	if m.Name() != "X" {
		t.Errorf("Name() = %s, want X", m.Name())
	}
	if first.calls != 1 || second.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", first.calls, second.calls)
	}
}

func TestResolve_StopsAtFirstMatch(t *testing.T) {
	first := &mockProvider{name: "first", serves: map[string]bool{"X": true}}
	second := &mockProvider{name: "second", serves: map[string]bool{"X": true}}

	if _, err := Resolve([]Provider{first, second}, "X"); err != nil {
		t.Fatalf("Resolve() returned error: %v", err)
	}
	if second.calls != 0 {
		t.Error("second provider should not be consulted")
	}
}

func TestResolve_AbortsOnConfigError(t *testing.T) {
	first := &mockProvider{name: "first", err: apierrors.NewConfigError("API key is required")}
	second := &mockProvider{name: "second", serves: map[string]bool{"X": true}}

	_, err := Resolve([]Provider{first, second}, "X")
	if !apierrors.IsConfigError(err) {
		t.Fatalf("Resolve() error = %v, want config error", err)
	}
	if second.calls != 0 {
		t.Error("second provider should not be consulted after a config error")
	}
}

func TestResolve_NobodyServesName(t *testing.T) {
	providers := []Provider{&mockProvider{name: "a"}, &mockProvider{name: "b"}}

	_, err := Resolve(providers, "mystery")
	if !apierrors.IsNotFound(err) {
		t.Fatalf("Resolve() error = %v, want not found", err)
	}
	if err.Error() != "no model found for mystery" {
		t.Errorf("Error() = %q", err.Error())
	}

	var notFound *apierrors.ModelNotFoundError
	if !errors.As(err, &notFound) || notFound.Provider != "" {
		t.Errorf("expected provider-less not found error, got %#v", err)
	}
}

func TestResolve_NoProviders(t *testing.T) {
	if _, err := Resolve(nil, "X"); !apierrors.IsNotFound(err) {
		t.Errorf("Resolve(nil) error = %v, want not found", err)
	}
}

func TestListAll_KeepsProviderOrder(t *testing.T) {
	slow := &mockProvider{name: "slow", models: []string{"s1"}, delay: 20 * time.Millisecond}
	fast := &mockProvider{name: "fast", models: []string{"f1", "f2"}}

	got := ListAll(context.Background(), []Provider{slow, fast})
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Provider != "slow" || len(got[0].Models) != 1 {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].Provider != "fast" || len(got[1].Models) != 2 {
		t.Errorf("got[1] = %+v", got[1])
	}
}
