package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"frameworks/pkg/api/lookout"
)

func newCanvasCmd(b Backends) *cobra.Command {
	var projectID, sessionID uint64

	cmd := &cobra.Command{
		Use:     "canvas",
		Short:   "Print signed URLs for a session's canvas recordings",
		Example: "  lookoutctl canvas --project 1307 --session 987654",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(); err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr())
			resolver, closeFn, err := b.Resolver(cmd.Context(), logger)
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			defer closeFn()

			resolved, err := resolver.Resolve(cmd.Context(), projectID, sessionID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output == "json" {
				resp := lookout.CanvasResponse{
					ProjectID:  projectID,
					SessionID:  sessionID,
					ExpiresIn:  int(resolver.Options().Expiration.Seconds()),
					Recordings: make([]lookout.CanvasRecording, 0, len(resolved)),
				}
				for _, rr := range resolved {
					resp.Recordings = append(resp.Recordings, lookout.CanvasRecording{CanvasRecording: rr.Recording, URL: rr.URL})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}

			if len(resolved) == 0 {
				fmt.Fprintln(out, "No canvas recordings for this session.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RECORDING\tTIMESTAMP\tURL")
			for _, rr := range resolved {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", rr.Recording.RecordingID, rr.Recording.Timestamp.Format(time.RFC3339), rr.URL)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Uint64Var(&projectID, "project", 0, "project id")
	cmd.Flags().Uint64Var(&sessionID, "session", 0, "session id")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}
