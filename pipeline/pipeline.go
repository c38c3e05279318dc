// Package pipeline runs a recorded flow through prompt compilation, text
// generation and post-processing, and archives a transcript of each run.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hairizuanbinnoorazman/testcrafter/flow"
	"github.com/hairizuanbinnoorazman/testcrafter/generation"
	"github.com/hairizuanbinnoorazman/testcrafter/logger"
	"github.com/hairizuanbinnoorazman/testcrafter/prompt"
	"github.com/hairizuanbinnoorazman/testcrafter/storage"
)

// ErrTranscriptNotFound is returned when no transcript is archived under an ID.
var ErrTranscriptNotFound = errors.New("transcript not found")

// Result is the outcome of one conversion.
type Result struct {
	Steps        []string       `json:"test_steps"`
	Skipped      []flow.Skipped `json:"skipped,omitempty"`
	TranscriptID string         `json:"transcript_id,omitempty"`
}

// Transcript records everything exchanged with the backend for one conversion.
type Transcript struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Prompt    string         `json:"prompt"`
	RawOutput string         `json:"raw_output"`
	Steps     []string       `json:"test_steps"`
	Skipped   []flow.Skipped `json:"skipped,omitempty"`
}

// Converter turns flows into generated test steps.
type Converter struct {
	generator generation.Generator
	post      prompt.PostProcessor
	archive   storage.BlobStorage
	logger    logger.Logger
	now       func() time.Time
}

// NewConverter creates a converter. A nil archive disables transcript archiving.
func NewConverter(gen generation.Generator, post prompt.PostProcessor, archive storage.BlobStorage, log logger.Logger) *Converter {
	return &Converter{
		generator: gen,
		post:      post,
		archive:   archive,
		logger:    log,
		now:       time.Now,
	}
}

// Convert parses a raw flow payload and converts it. Malformed records are
// skipped, logged and reported in the result.
func (c *Converter) Convert(ctx context.Context, raw json.RawMessage) (*Result, error) {
	f, skipped, err := flow.Parse(raw)
	for _, s := range skipped {
		c.logger.Warn(ctx, "skipping malformed step", map[string]interface{}{
			"index":  s.Index,
			"reason": s.Reason,
		})
	}
	if err != nil {
		return nil, err
	}

	return c.ConvertFlow(ctx, f, skipped)
}

// ConvertFlow converts an already parsed flow.
func (c *Converter) ConvertFlow(ctx context.Context, f flow.Flow, skipped []flow.Skipped) (*Result, error) {
	p, err := prompt.Compile(f)
	if err != nil {
		return nil, err
	}

	start := c.now()
	raw, err := c.generator.Generate(ctx, p)
	if err != nil {
		c.logger.Error(ctx, "generation failed", map[string]interface{}{
			"error": err.Error(),
			"steps": len(f),
		})
		return nil, fmt.Errorf("failed to generate test steps: %w", err)
	}

	steps := c.post.Process(raw, p)
	c.logger.Info(ctx, "flow converted", map[string]interface{}{
		"input_steps":     len(f),
		"generated_steps": len(steps),
		"skipped":         len(skipped),
		"duration_ms":     c.now().Sub(start).Milliseconds(),
	})

	result := &Result{Steps: steps, Skipped: skipped}
	if c.archive != nil {
		result.TranscriptID = c.store(ctx, &Transcript{
			ID:        uuid.New().String(),
			CreatedAt: start.UTC(),
			Prompt:    p,
			RawOutput: raw,
			Steps:     steps,
			Skipped:   skipped,
		})
	}
	return result, nil
}

// store archives the transcript and returns its ID. Archive failures are logged
// and do not fail the conversion.
func (c *Converter) store(ctx context.Context, t *Transcript) string {
	body, err := json.Marshal(t)
	if err != nil {
		c.logger.Error(ctx, "failed to encode transcript", map[string]interface{}{"error": err.Error()})
		return ""
	}

	key := TranscriptKey(t.ID, t.CreatedAt)
	if err := c.archive.Put(ctx, key, bytes.NewReader(body), "application/json"); err != nil {
		c.logger.Warn(ctx, "failed to archive transcript", map[string]interface{}{
			"error": err.Error(),
			"key":   key,
		})
		return ""
	}
	return TranscriptRef(t.ID, t.CreatedAt)
}

// TranscriptRef is the public identifier of a transcript: its date and UUID,
// "YYYY-MM-DD/<uuid>".
func TranscriptRef(id string, createdAt time.Time) string {
	return createdAt.UTC().Format("2006-01-02") + "/" + id
}

// TranscriptKey is the storage key of a transcript:
// "transcripts/YYYY/MM/DD/<uuid>.json".
func TranscriptKey(id string, createdAt time.Time) string {
	return "transcripts/" + createdAt.UTC().Format("2006/01/02") + "/" + id + ".json"
}

// LoadTranscript reads an archived transcript by its reference.
func LoadTranscript(ctx context.Context, archive storage.BlobStorage, date, id string) (*Transcript, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("%w: bad date %q", ErrTranscriptNotFound, date)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: bad id %q", ErrTranscriptNotFound, id)
	}

	r, err := archive.Get(ctx, TranscriptKey(id, day))
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return nil, ErrTranscriptNotFound
		}
		return nil, err
	}
	defer r.Close()

	var t Transcript
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to decode transcript: %w", err)
	}
	return &t, nil
}
