package report

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff returns a unified diff between the text renderings of two summaries.
// An empty string means nothing changed.
func Diff(before, after *Summary, fromName, toName string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before.Text()),
		B:        difflib.SplitLines(after.Text()),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("failed to diff summaries: %w", err)
	}
	return text, nil
}
