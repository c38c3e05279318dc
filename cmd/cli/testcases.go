package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"

	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect recording sessions",
	}

	cmd.AddCommand(newSessionsCheckCmd())
	cmd.AddCommand(newSessionsListCmd())
	return cmd
}

func newSessionsCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [session-name]",
		Short: "Check whether a session exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get("/api/v1/sessions/check", url.Values{"sessionName": {args[0]}})
			if err != nil {
				return err
			}

			if flagJSON {
				printRaw(body)
				return nil
			}

			var resp SessionCheckResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
			if resp.Exists {
				printMessage(fmt.Sprintf("Session %q exists", args[0]))
			} else {
				printMessage(fmt.Sprintf("Session %q does not exist", args[0]))
			}
			return nil
		},
	}
}

func newSessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [session-name]",
		Short: "List a session's test cases by feature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get("/api/v1/sessions/"+url.PathEscape(args[0])+"/testcases", nil)
			if err != nil {
				return err
			}

			if flagJSON {
				printRaw(body)
				return nil
			}

			var resp SessionTestCasesResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			features := make([]string, 0, len(resp.TestCases))
			for f := range resp.TestCases {
				features = append(features, f)
			}
			sort.Strings(features)

			var cases []TestCaseResponse
			for _, f := range features {
				cases = append(cases, resp.TestCases[f]...)
			}
			printTestCases(cases)
			printMessage(fmt.Sprintf("\n%d test cases in %d features", len(cases), len(features)))
			return nil
		},
	}
}

func newTestCasesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "testcases",
		Short: "Manage recorded test cases",
	}

	cmd.AddCommand(newTestCasesCreateCmd())
	cmd.AddCommand(newTestCasesSetStepsCmd())
	cmd.AddCommand(newTestCasesGenerateCmd())
	return cmd
}

func printTestCase(body []byte) error {
	if flagJSON {
		printRaw(body)
		return nil
	}

	var tc TestCaseResponse
	if err := json.Unmarshal(body, &tc); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	printMessage(fmt.Sprintf("Test case %s (%s / %s)", tc.ID, tc.SessionName, tc.Feature))
	for _, step := range tc.TestSteps {
		printMessage("  " + step)
	}
	return nil
}

func newTestCasesCreateCmd() *cobra.Command {
	var req CreateTestCaseRequest
	var file string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Store a recorded flow as a test case",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			actions, err := readFlowFile(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			req.Actions = actions

			body, err := client.Post("/api/v1/testcases", req)
			if err != nil {
				return err
			}
			return printTestCase(body)
		},
	}

	cmd.Flags().StringVar(&req.SessionName, "session", "", "Session name (required)")
	cmd.Flags().StringVar(&req.Feature, "feature", "", "Feature under test (required)")
	cmd.Flags().StringVar(&req.Name, "name", "", "Test case name (required)")
	cmd.Flags().StringVar(&req.RecordedBy, "recorded-by", "", "Who recorded the flow (required)")
	cmd.Flags().StringVarP(&file, "file", "f", "-", "Flow JSON file, or - for stdin")
	cmd.MarkFlagRequired("session")
	cmd.MarkFlagRequired("feature")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("recorded-by")
	return cmd
}

func newTestCasesSetStepsCmd() *cobra.Command {
	var id string
	var steps []string

	cmd := &cobra.Command{
		Use:   "set-steps",
		Short: "Replace a test case's test steps",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Put("/api/v1/testcases/"+url.PathEscape(id)+"/steps", UpdateStepsRequest{TestSteps: steps})
			if err != nil {
				return err
			}
			return printTestCase(body)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test case ID (required)")
	cmd.MarkFlagRequired("id")
	cmd.Flags().StringArrayVar(&steps, "step", nil, "Test step, repeat for each step")
	return cmd
}

func newTestCasesGenerateCmd() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate and save test steps for a stored test case",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Post("/api/v1/testcases/"+url.PathEscape(id)+"/generate", nil)
			if err != nil {
				return err
			}
			return printTestCase(body)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Test case ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func newTranscriptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcripts",
		Short: "Inspect archived conversion transcripts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [transcript-id]",
		Short: "Show the prompt and raw backend output of a conversion",
		Long:  "Show an archived transcript. The ID is the transcript_id returned by convert, in the form YYYY-MM-DD/<uuid>.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Get("/api/v1/transcripts/"+args[0], nil)
			if err != nil {
				return err
			}

			if flagJSON {
				printRaw(body)
				return nil
			}

			var t TranscriptResponse
			if err := json.Unmarshal(body, &t); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printMessage(fmt.Sprintf("Transcript %s (%s)", t.ID, t.CreatedAt.Format("2006-01-02 15:04:05")))
			printMessage("\n--- prompt ---\n" + t.Prompt)
			printMessage("\n--- raw output ---\n" + t.RawOutput)
			return nil
		},
	})
	return cmd
}
