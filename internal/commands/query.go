package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/diogo/llmchat/internal/chat"
	apierrors "github.com/diogo/llmchat/internal/errors"
	"github.com/diogo/llmchat/internal/model"
	"github.com/diogo/llmchat/internal/render"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#ff6b6b"),
	lipgloss.Color("#feca57"),
	lipgloss.Color("#48dbfb"),
	lipgloss.Color("#ff9ff3"),
	lipgloss.Color("#54a0ff"),
	lipgloss.Color("#5f27cd"),
	lipgloss.Color("#00d2d3"),
	lipgloss.Color("#1dd1a1"),
}

var (
	colorText     = lipgloss.Color("#c0caf5")
	colorTextDim  = lipgloss.Color("#565f89")
	colorTextMute = lipgloss.Color("#3b4261")
	colorSuccess  = lipgloss.Color("#9ece6a")
	colorPrimary  = lipgloss.Color("#7aa2f7")
	colorWarning  = lipgloss.Color("#e0af68")
	colorError    = lipgloss.Color("#f7768e")
)

var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginBottom(1)

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	dimStyle     = lipgloss.NewStyle().Foreground(colorTextDim)
)

// spinner handles the animated loading indicator
type spinner struct {
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool
}

// newSpinner creates a new animated spinner drawing on out
func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// render draws the current animation frame
func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[s.frame%len(chars)])

	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dotColor := gradientColors[(s.frame+i)%len(gradientColors)]
			dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)
	fmt.Fprintf(s.out, "\r\033[K%s %s %s", spinnerChar, msg, dots.String())
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

// stopWithSuccess stops the spinner and shows success message
func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	checkmark := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	fmt.Fprintf(s.out, "%s %s\n", checkmark, successStyle.Render(message))
}

// stopWithError stops the spinner and shows error
func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// answer is one model's reply to a query
type answer struct {
	model string
	text  string
	err   error
}

// askAll sends prompt to every model concurrently. Answers keep model order.
func askAll(ctx context.Context, models []*model.Model, prompt string, timeout time.Duration) []answer {
	thread := []chat.Message{{ID: 1, Origin: chat.User, Content: prompt, CreatedAt: time.Now().UTC()}}

	answers := make([]answer, len(models))
	g, ctx := errgroup.WithContext(ctx)
	for i, m := range models {
		i, m := i, m
		g.Go(func() error {
			reqCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			text, err := m.Backend().Send(reqCtx, thread)
			answers[i] = answer{model: m.Name(), text: text, err: err}
			return nil
		})
	}
	_ = g.Wait() // failures are per answer
	return answers
}

// runQuery sends a single prompt to the selected models and prints the replies.
// Decoration (spinner, bubbles, rendered markdown) is used only on a terminal.
func runQuery(cmd *cobra.Command, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	models, err := a.resolveModels()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	decorated := deps.IsTerminal()

	var spin *spinner
	if decorated {
		spin = newSpinner(errOut, fmt.Sprintf("Asking %s", modelList(models)))
		spin.start()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	answers := askAll(ctx, models, prompt, a.cfg.RequestTimeout.Duration)
	log.Debug().Dur("took", time.Since(start)).Int("models", len(models)).Msg("query finished")

	var (
		texts  []string
		failed []answer
	)
	for _, ans := range answers {
		if ans.err != nil {
			failed = append(failed, ans)
			continue
		}
		texts = append(texts, ans.text)
	}

	if len(texts) == 0 {
		if spin != nil {
			spin.stopWithError()
		}
		return fmt.Errorf("generation failed: %w", failed[0].err)
	}
	if spin != nil {
		spin.stopWithSuccess("Done")
	}
	for _, f := range failed {
		fmt.Fprintln(errOut, formatErrorMessage(f.err, f.model))
	}

	text := joinAnswers(answers)

	if copyFlag || a.cfg.CopyToClipboard {
		if err := deps.Clipboard(text); err != nil {
			fmt.Fprintln(errOut, warningStyle.Render(fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		} else if decorated {
			fmt.Fprintln(errOut, successStyle.Render("✓ Copied to clipboard"))
		}
	}

	if outputFlag != "" {
		if err := os.WriteFile(outputFlag, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if decorated {
			fmt.Fprintln(errOut, successStyle.Render(fmt.Sprintf("✓ Response saved to %s", outputFlag)))
		}
		return nil
	}

	if !decorated {
		fmt.Fprint(out, text)
		if !strings.HasSuffix(text, "\n") {
			fmt.Fprintln(out)
		}
		return nil
	}

	bubbleWidth := min(max(getTerminalWidth()-4, 40), 120)
	renderOpts := render.FromConfig(a.cfg.Markdown, deps.Lookup).WithWidth(bubbleWidth - 4)
	for _, ans := range answers {
		if ans.err != nil {
			continue
		}
		fmt.Fprintln(out, assistantLabelStyle.Render("✦ "+ans.model))
		rendered, err := render.Markdown(ans.text, renderOpts)
		if err != nil {
			rendered = ans.text
		}
		rendered = strings.TrimRight(rendered, "\n")
		fmt.Fprintln(out, assistantBubbleStyle.Width(bubbleWidth).Render(rendered))
	}

	return nil
}

// joinAnswers returns the single reply as is, or every successful reply
// under a markdown heading naming its model.
func joinAnswers(answers []answer) string {
	var ok []answer
	for _, ans := range answers {
		if ans.err == nil {
			ok = append(ok, ans)
		}
	}
	if len(ok) == 1 {
		return ok[0].text
	}

	var sb strings.Builder
	for i, ans := range ok {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "## %s\n\n%s", ans.model, strings.TrimSpace(ans.text))
	}
	sb.WriteString("\n")
	return sb.String()
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	errorStyle := lipgloss.NewStyle().Foreground(colorError)

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", context, err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}

	switch {
	case apierrors.IsConfigError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: pass --openai-api-key/--anthropic-api-key or export " +
			"OPENAI_API_KEY/ANTHROPIC_API_KEY"))
	case apierrors.IsNotFound(err):
		sb.WriteString(dimStyle.Render("\n  Hint: run 'llmchat models' to see the available models"))
	case apierrors.GetHTTPStatus(err) == 401:
		sb.WriteString(dimStyle.Render("\n  Hint: the API key was rejected"))
	case apierrors.GetHTTPStatus(err) == 429:
		sb.WriteString(dimStyle.Render("\n  Hint: rate limited; try again later or lower requests_per_second"))
	case apierrors.IsNetworkError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: check your internet connection and try again"))
	case apierrors.IsParseError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: the provider answered in an unexpected format; --verbose logs the exchange"))
	}

	return sb.String()
}

// truncate shortens s to n runes, adding an ellipsis when cut
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
