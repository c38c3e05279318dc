package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// readFlowFile reads a recorded flow from a file, or from stdin when path is "-".
// Both a bare step list and an object with a "flow" or "actions" field are accepted.
func readFlowFile(path string, stdin io.Reader) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read flow: %w", err)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("flow file is not valid JSON")
	}

	var wrapped struct {
		Flow    json.RawMessage `json:"flow"`
		Actions json.RawMessage `json:"actions"`
	}
	if json.Unmarshal(data, &wrapped) == nil {
		if len(wrapped.Flow) > 0 {
			return wrapped.Flow, nil
		}
		if len(wrapped.Actions) > 0 {
			return wrapped.Actions, nil
		}
	}
	return json.RawMessage(data), nil
}

func newConvertCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a recorded flow into test steps",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			flow, err := readFlowFile(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			body, err := client.Post("/api/v1/flows/convert", FlowRequest{Flow: flow})
			if err != nil {
				return err
			}

			if flagJSON {
				printRaw(body)
				return nil
			}

			var resp ConvertResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			for _, step := range resp.TestSteps {
				printMessage(step)
			}
			for _, s := range resp.Skipped {
				fmt.Fprintf(os.Stderr, "skipped step %d: %s\n", s.Index, s.Reason)
			}
			if resp.TranscriptID != "" {
				fmt.Fprintf(os.Stderr, "transcript: %s\n", resp.TranscriptID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "Flow JSON file, or - for stdin")
	return cmd
}

func newSimilarCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "similar",
		Short: "List recorded test cases similar to a flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			flow, err := readFlowFile(file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			body, err := client.Post("/api/v1/flows/similar", FlowRequest{Flow: flow})
			if err != nil {
				return err
			}

			if flagJSON {
				printRaw(body)
				return nil
			}

			var resp SimilarResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printTestCases(resp.TestCases)
			printMessage(fmt.Sprintf("\nKeywords: %s (%d matches)", strings.Join(resp.Keywords, ", "), len(resp.TestCases)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "Flow JSON file, or - for stdin")
	return cmd
}

func printTestCases(cases []TestCaseResponse) {
	headers := []string{"ID", "SESSION", "FEATURE", "NAME", "RECORDED BY", "STEPS", "CREATED AT"}
	var rows [][]string
	for _, tc := range cases {
		rows = append(rows, []string{
			tc.ID.String(),
			tc.SessionName,
			tc.Feature,
			truncate(tc.Name, 40),
			tc.RecordedBy,
			strconv.Itoa(len(tc.TestSteps)),
			tc.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	printTable(headers, rows)
}
