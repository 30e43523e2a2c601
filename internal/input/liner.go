package input

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
)

// LinerSource reads lines from the terminal with line editing and a
// persistent input history
type LinerSource struct {
	state       *liner.State
	prompt      string
	historyFile string
}

// NewLinerSource takes over the terminal. historyFile may be empty.
func NewLinerSource(prompt, historyFile string) *LinerSource {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)

	s := &LinerSource{state: state, prompt: prompt, historyFile: historyFile}
	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = state.ReadHistory(f)
			f.Close()
		}
	}
	return s
}

// SetPrompt changes the prompt shown for subsequent lines
func (s *LinerSource) SetPrompt(prompt string) {
	s.prompt = prompt
}

// ReadLine prompts for a line. Ctrl+C and Ctrl+D both end the input.
func (s *LinerSource) ReadLine() (string, error) {
	line, err := s.state.Prompt(s.prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", io.EOF
		}
		return "", err
	}
	if strings.TrimSpace(line) != "" && line != DefaultDelimiter {
		s.state.AppendHistory(line)
	}
	return line, nil
}

// Close saves the input history and restores the terminal
func (s *LinerSource) Close() error {
	if s.historyFile != "" {
		if err := os.MkdirAll(filepath.Dir(s.historyFile), 0o700); err == nil {
			if f, err := os.OpenFile(s.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
				_, _ = s.state.WriteHistory(f)
				f.Close()
			}
		}
	}
	return s.state.Close()
}
