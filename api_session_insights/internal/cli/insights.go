package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"frameworks/api_session_insights/internal/insights"
	"frameworks/api_session_insights/internal/query"
	"frameworks/api_session_insights/internal/timestep"
	"frameworks/pkg/api/lookout"
)

func newInsightCmd(kind query.Kind, b Backends) *cobra.Command {
	var (
		projectID uint64
		start     string
		end       string
		step      string
	)

	cmd := &cobra.Command{
		Use:     string(kind),
		Short:   fmt.Sprintf("Compare %s between the two most recent time buckets", kind),
		Example: fmt.Sprintf("  lookoutctl %s --project 1307 --start 2022-04-19 --end 2022-04-21 --step hour", kind),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(); err != nil {
				return err
			}
			params, err := buildParams(projectID, start, end, step, time.Now().UTC())
			if err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr())
			comparator, closeFn, err := b.Comparator(cmd.Context(), logger)
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			defer closeFn()

			resp := lookout.InsightsResponse{
				ProjectID: params.ProjectID,
				Kind:      string(kind),
				TimeStep:  params.Step.String(),
				StartTime: params.Start,
				EndTime:   params.End,
			}

			var text func(io.Writer, painter)
			switch kind {
			case query.Requests:
				var res *insights.RequestsComparison
				if res, err = comparator.Requests(cmd.Context(), params); err == nil {
					resp.Comparison = res.API()
					text = func(w io.Writer, p painter) { writeRequests(w, p, res) }
				}
			case query.Errors:
				var res *insights.ErrorsComparison
				if res, err = comparator.Errors(cmd.Context(), params); err == nil {
					resp.Comparison = res.API()
					text = func(w io.Writer, p painter) { writeErrors(w, p, res) }
				}
			case query.Resources:
				var res *insights.ResourcesComparison
				if res, err = comparator.Resources(cmd.Context(), params); err == nil {
					resp.Comparison = res.API()
					text = func(w io.Writer, p painter) { writeResources(w, p, res) }
				}
			}

			if errors.Is(err, insights.ErrInsufficientData) {
				resp.InsufficientData = true
			} else if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			if resp.InsufficientData {
				fmt.Fprintln(out, "Not enough data: the range holds fewer than two time buckets.")
				return nil
			}
			text(out, newPainter(out))
			return nil
		},
	}

	cmd.Flags().Uint64Var(&projectID, "project", 0, "project id")
	cmd.Flags().StringVar(&start, "start", "", "range start, YYYY-MM-DD or RFC3339 (default: 24h ago)")
	cmd.Flags().StringVar(&end, "end", "", "range end, YYYY-MM-DD or RFC3339 (default: now)")
	cmd.Flags().StringVar(&step, "step", "hour", "bucket size: hour|day|week or minutes")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func buildParams(projectID uint64, start, end, step string, now time.Time) (query.Params, error) {
	s, err := query.ParseTime(start, now.Add(-24*time.Hour))
	if err != nil {
		return query.Params{}, fmt.Errorf("--start: %w", err)
	}
	e, err := query.ParseTime(end, now)
	if err != nil {
		return query.Params{}, fmt.Errorf("--end: %w", err)
	}
	st, err := timestep.Parse(step)
	if err != nil {
		return query.Params{}, fmt.Errorf("--step: %w", err)
	}

	p := query.Params{ProjectID: projectID, Start: s, End: e, Step: st}
	if err := p.Validate(); err != nil {
		return query.Params{}, err
	}
	return p, nil
}

func writePeriods(w io.Writer, p insights.PeriodPair) {
	fmt.Fprintf(w, "Current bucket:  %s\n", p.Current.Format(time.RFC3339))
	fmt.Fprintf(w, "Previous bucket: %s\n", p.Previous.Format(time.RFC3339))
}

func writeTable(w io.Writer, p painter, title, header string, t tone, ds []insights.Delta) {
	fmt.Fprintf(w, "\n%s\n", title)
	if len(ds) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  NAME\t%s\n", header)
	for _, d := range ds {
		fmt.Fprintf(tw, "  %s\t%s\n", d.Name, p.paint(d.Value, t))
	}
	_ = tw.Flush()
}

func writeList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(w, "\n%s: (none)\n", title)
		return
	}
	fmt.Fprintf(w, "\n%s: %s\n", title, strings.Join(items, ", "))
}

func writeRequests(w io.Writer, p painter, c *insights.RequestsComparison) {
	writePeriods(w, c.Periods)
	writeTable(w, p, "Duration increase", "DELTA", higherIsWorse, c.DurationIncrease)
	writeTable(w, p, "Success rate change", "DELTA", higherIsBetter, c.SuccessRateChange)
	writeTable(w, p, "Sessions change", "DELTA", neutral, c.SessionsChange)
	writeTable(w, p, "Lowest success rate", "SUCCESS", neutral, c.LowestSuccessRate)
	writeTable(w, p, "Slowest hosts", "DURATION", neutral, c.SlowestHosts)
	writeList(w, "New hosts", c.NewHosts)
}

func writeErrors(w io.Writer, p painter, c *insights.ErrorsComparison) {
	writePeriods(w, c.Periods)
	writeTable(w, p, "Share of current sessions", "SHARE", neutral, c.Share)
	writeTable(w, p, "Increase", "DELTA", higherIsWorse, c.Increase)
	writeList(w, "New errors", c.NewErrors)
}

func writeResources(w io.Writer, p painter, c *insights.ResourcesComparison) {
	writePeriods(w, c.Periods)
	fmt.Fprintf(w, "\nCPU increase:    %s\n", p.paint(c.CPUIncrease, higherIsWorse))
	fmt.Fprintf(w, "Memory increase: %s\n", p.paint(c.MemoryIncrease, higherIsWorse))

	fmt.Fprintln(w, "\nHosts")
	if len(c.Hosts) == 0 {
		fmt.Fprintln(w, "  (none)")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  NAME\tCPU\tMEMORY\tMEMORY %")
		for _, h := range c.Hosts {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", h.Name, h.CPU, h.Memory, p.paint(h.MemoryRelative, higherIsWorse))
		}
		_ = tw.Flush()
	}
	writeList(w, "New hosts", c.NewHosts)
}
