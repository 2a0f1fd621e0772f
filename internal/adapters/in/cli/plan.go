package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/acoshift/neppage/internal/app"
	"github.com/acoshift/neppage/internal/domain"
)

func newPlanCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show the route changes the next reconciliation would make",
		Long: `Fetches the page configs and the route table and prints the creates,
updates and deletes a reconciliation pass would issue. Nothing is changed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			plan, err := app.Plan(ctx, *configPath)
			if err != nil {
				return err
			}
			return renderPlan(cmd.OutOrStdout(), plan)
		},
	}
}

func renderPlan(w io.Writer, plan domain.RoutePlan) error {
	if plan.Empty() {
		_, err := fmt.Fprintln(w, color.GreenString("routes are in sync"))
		return err
	}

	data, err := yaml.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "\n%s, %s, %s\n",
		color.GreenString("+%d create", len(plan.Creates)),
		color.YellowString("~%d update", len(plan.Updates)),
		color.RedString("-%d delete", len(plan.Deletes)),
	)
	return err
}
