package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	glerrors "github.com/chazuruo/glflow/internal/errors"
)

// runForm runs a huh form, mapping a user abort to ErrCanceled.
func runForm(ctx context.Context, form *huh.Form) error {
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return fmt.Errorf("%w: aborted by user", glerrors.ErrCanceled)
		}
		return fmt.Errorf("form error: %w", err)
	}
	return nil
}

// requireInteractive fails when -i is combined with --no-tui.
func requireInteractive(command string) error {
	if IsNoTUI() {
		return glerrors.Precondition("%s -i needs interactive forms; drop --no-tui or pass flags instead", command)
	}
	return nil
}

func notBlank(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// splitLabels splits a comma-separated list, dropping blanks.
func splitLabels(s string) []string {
	var labels []string
	for _, l := range strings.Split(s, ",") {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}
	return labels
}
