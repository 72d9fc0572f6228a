package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jakechorley/ninebox-weightage/pkg/core/model"
)

// parseDecimal accepts plain numbers and percentages such as "12.5%"
func parseDecimal(name, raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSuffix(strings.TrimSpace(raw), "%")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a number, got: %s", name, raw)
	}
	return d, nil
}

// decimalFlag returns nil when the flag was not set on the command line
func decimalFlag(cmd *cobra.Command, name string) (*decimal.Decimal, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	raw, err := cmd.Flags().GetString(name)
	if err != nil {
		return nil, err
	}
	d, err := parseDecimal("--"+name, raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func stringFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func intFlag(cmd *cobra.Command, name string) (*int, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	raw, _ := cmd.Flags().GetString(name)
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("--%s must be a whole number, got: %s", name, raw)
	}
	return &n, nil
}

func priorityFlag(cmd *cobra.Command, name string) (*model.Priority, error) {
	raw := stringFlag(cmd, name)
	if raw == nil {
		return nil, nil
	}
	p, err := model.ParsePriority(*raw)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func metricFlag(cmd *cobra.Command, name string) (*model.Metric, error) {
	raw := stringFlag(cmd, name)
	if raw == nil {
		return nil, nil
	}
	m, err := model.ParseMetric(*raw)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func printAction(w io.Writer, action *model.ClientAction) {
	for a := action; a != nil; a = a.Next {
		switch a.Tag {
		case model.ActionDisplayNotification:
			if a.Notification != nil {
				fmt.Fprintf(w, "%s: %s\n", a.Notification.Title, a.Notification.Message)
			}
		case model.ActionReload:
			fmt.Fprintln(w, "Template reloaded.")
		}
	}
}
