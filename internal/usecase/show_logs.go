package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/runoshun/plan-review/internal/domain"
)

// ShowLogsInput contains the parameters for showing the operation log.
type ShowLogsInput struct {
	Lines      int  // Number of lines to display from the end (0 = all)
	ReviewOnly bool // Only lines tagged with the current plan's review id
}

// ShowLogsOutput contains the result of showing the log.
type ShowLogsOutput struct {
	LogPath string // Path to the log file
	Content string // Log file content
}

// ShowLogs is the use case for viewing the planreview log.
type ShowLogs struct {
	session PlanSession
	dir     string // .planreview directory
}

// NewShowLogs creates a new ShowLogs use case.
func NewShowLogs(session PlanSession, dir string) *ShowLogs {
	return &ShowLogs{
		session: session,
		dir:     dir,
	}
}

// Execute reads and returns the log content.
func (uc *ShowLogs) Execute(ctx context.Context, in ShowLogsInput) (*ShowLogsOutput, error) {
	logPath := domain.LogPath(uc.dir)

	content, err := os.ReadFile(logPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ShowLogsOutput{LogPath: logPath}, nil
		}
		return nil, fmt.Errorf("read log file: %w", err)
	}

	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if in.ReviewOnly {
		if err := ensureLoaded(ctx, uc.session); err != nil {
			return nil, err
		}
		plan, err := uc.session.Plan()
		if err != nil {
			return nil, err
		}
		lines = filterReview(lines, plan.ReviewID)
	}

	// If lines is specified, get only the last N lines
	if in.Lines > 0 && len(lines) > in.Lines {
		lines = lines[len(lines)-in.Lines:]
	}

	result := strings.Join(lines, "\n")
	if result != "" {
		result += "\n"
	}
	return &ShowLogsOutput{
		LogPath: logPath,
		Content: result,
	}, nil
}

// filterReview keeps lines scoped to reviewID; the logger tags them with its first 8 characters.
func filterReview(lines []string, reviewID string) []string {
	if reviewID == "" {
		return nil
	}
	short := reviewID
	if len(short) > 8 {
		short = short[:8]
	}
	tag := "[review-" + short + "]"

	var kept []string
	for _, l := range lines {
		if strings.Contains(l, tag) {
			kept = append(kept, l)
		}
	}
	return kept
}
