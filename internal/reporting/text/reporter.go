package text

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/olusolaa/cloud-lifecycle/internal/core/domain"
	"github.com/olusolaa/cloud-lifecycle/internal/core/ports"
	apperrors "github.com/olusolaa/cloud-lifecycle/internal/errors"
)

const ReporterTypeText = "text"

type Config struct {
	NoColor bool `yaml:"no_color" mapstructure:"no_color"`
	// Verbose lists every step, not only those of failed workflows.
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
}

type Reporter struct {
	config Config
	writer io.Writer
	logger ports.Logger
}

type Option func(*Reporter)

// WithWriter sends the report to w instead of stdout. Colour is disabled
// for anything that is not a terminal.
func WithWriter(w io.Writer) Option {
	return func(r *Reporter) { r.writer = w }
}

func NewReporter(cfg Config, logger ports.Logger, opts ...Option) (*Reporter, error) {
	r := &Reporter{
		config: cfg,
		writer: os.Stdout,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	if f, ok := r.writer.(*os.File); cfg.NoColor || !ok || !isTerminal(f) {
		color.NoColor = true
	}
	return r, nil
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func (r *Reporter) Report(ctx context.Context, results []domain.WorkflowResult) error {
	if len(results) == 0 {
		fmt.Fprintln(r.writer, "No workflows were run.")
		return nil
	}

	sorted := append([]domain.WorkflowResult(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Type != sorted[j].Type {
			return sorted[i].Type < sorted[j].Type
		}
		return sorted[i].Name < sorted[j].Name
	})

	tw := tabwriter.NewWriter(r.writer, 0, 8, 2, ' ', 0)
	defer tw.Flush()

	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	magenta := color.New(color.FgMagenta).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Fprintln(tw, "Workflow Report")
	fmt.Fprintln(tw, "===============")
	fmt.Fprintln(tw, "Status\tType\tName\tDuration\tDetails")
	fmt.Fprintln(tw, "------\t----\t----\t--------\t-------")

	succeeded, failed, cleanupFailed := 0, 0, 0
	for _, res := range sorted {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var statusStr, details string
		switch res.Status {
		case domain.StatusSucceeded:
			succeeded++
			statusStr = green("[OK]")
			details = fmt.Sprintf("%d steps", len(res.Steps))
		case domain.StatusCleanupFailed:
			cleanupFailed++
			statusStr = magenta("[CLEANUP FAILED]")
			details = r.formatError(res.Error)
		default:
			failed++
			statusStr = red("[FAILED]")
			details = r.formatError(res.Error)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", statusStr, res.Type, res.Name,
			res.Duration.Round(time.Millisecond), details)

		if r.config.Verbose || res.Failed() {
			for _, st := range res.Steps {
				mark := faint("ok")
				if st.Error != nil {
					mark = red("failed")
				}
				resource := st.ResourceID
				if st.ResourceKind != "" {
					resource = fmt.Sprintf("%s %s", st.ResourceKind, st.ResourceID)
				}
				fmt.Fprintf(tw, "\t\t  %s\t%s\t%s %s\n", st.Name, st.Duration.Round(time.Millisecond),
					mark, strings.TrimSpace(resource+" "+st.State))
			}
		}
	}

	fmt.Fprintln(tw, "\nSummary:")
	fmt.Fprintln(tw, "-------")
	fmt.Fprintf(tw, "Total Workflows:\t%d\n", len(sorted))
	fmt.Fprintf(tw, "Succeeded:\t%s\n", green(succeeded))
	fmt.Fprintf(tw, "Failed:\t%s\n", red(failed))
	fmt.Fprintf(tw, "Cleanup Failed:\t%s\n", magenta(cleanupFailed))

	return nil
}

func (r *Reporter) formatError(err error) string {
	if err == nil {
		return "failed without an error"
	}
	msg := err.Error()
	if userMsg, suggestion, ok := apperrors.GetUserFacingMessage(err); ok {
		msg = fmt.Sprintf("%s (%s)", userMsg, suggestion)
	}
	return truncate(msg)
}

func truncate(s string) string {
	const maxLen = 160
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > maxLen {
		return s[:maxLen-3] + "..."
	}
	return s
}
