package main

import (
	"encoding/json"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newFeaturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "features",
		Short: "Extract features from requirement documents",
	}

	cmd.AddCommand(newFeaturesExtractCmd())
	cmd.AddCommand(newFeaturesUploadCmd())
	return cmd
}

func printFeatures(body []byte) error {
	if flagJSON {
		printRaw(body)
		return nil
	}

	var resp FeaturesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	for _, f := range resp.Features {
		printMessage(f)
	}
	return nil
}

func newFeaturesExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract [text]",
		Short: "Extract features from free text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			body, err := client.Post("/api/v1/features/extract", ExtractRequest{Text: strings.Join(args, " ")})
			if err != nil {
				return err
			}
			return printFeatures(body)
		},
	}
}

// documentContentType guesses a document's media type from its extension.
func documentContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt", "":
		return "text/plain"
	}
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func newFeaturesUploadCmd() *cobra.Command {
	var file, pageURL, contentType string

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a requirements document and extract its features",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			if contentType == "" {
				contentType = documentContentType(file)
			}

			fields := map[string]string{}
			if pageURL != "" {
				fields["url"] = pageURL
			}

			body, err := client.Upload("/api/v1/features/upload", file, contentType, fields)
			if err != nil {
				return err
			}
			return printFeatures(body)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Document to upload (required)")
	cmd.MarkFlagRequired("file")
	cmd.Flags().StringVar(&pageURL, "page-url", "", "URL of the application under test")
	cmd.Flags().StringVar(&contentType, "content-type", "", "Override the detected content type")
	return cmd
}
