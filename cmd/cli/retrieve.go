package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

func newRetrieveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retrieve [query]",
		Short: "Find the indexed feature closest to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			query := strings.Join(args, " ")
			body, err := client.Get("/api/v1/retrieve/"+url.PathEscape(query), nil)
			if err != nil {
				return err
			}

			if flagJSON {
				printRaw(body)
				return nil
			}

			var resp RetrieveResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			printTable(
				[]string{"FEATURE", "DISTANCE", "TEXT"},
				[][]string{{resp.ID, fmt.Sprintf("%.4f", resp.Distance), truncate(resp.Text, 60)}},
			)
			return nil
		},
	}
}
