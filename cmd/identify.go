package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/soundmatch/internal/formatter"
	"github.com/desertthunder/soundmatch/internal/services"
	"github.com/desertthunder/soundmatch/internal/shared"
	"github.com/desertthunder/soundmatch/internal/tasks"
	"github.com/urfave/cli/v3"
)

const maxAudioBytes = 10 << 20

// Identify resolves --file through audio recognition, or --title/--artist directly,
// and records the match in the user's history.
func (r *Runner) Identify(ctx context.Context, cmd *cli.Command) error {
	if r.identifier == nil {
		return fmt.Errorf("%w: identify is not configured", shared.ErrServiceUnavailable)
	}

	user := cmd.String("user")
	file := cmd.String("file")
	title := cmd.String("title")
	if file == "" && title == "" {
		return fmt.Errorf("%w: either --file or --title must be provided", shared.ErrMissingArgument)
	}
	if file != "" && title != "" {
		return fmt.Errorf("%w: cannot specify both --file and --title", shared.ErrInvalidInput)
	}

	progress, stop := r.watch(false)
	var (
		res *tasks.IdentifyResult
		err error
	)
	if file != "" {
		res, err = r.identifyFile(ctx, progress, user, file)
	} else {
		res, err = r.identifier.Identify(ctx, progress, user, title, cmd.String("artist"))
	}
	stop()
	if err != nil {
		return err
	}

	r.logger.Info("identify complete", "found", res.Found(), "platform", res.Match.Platform, "saved", res.Saved)
	if cmd.Bool("json") {
		return r.writeJSON(res, true)
	}
	return r.writePlain("%s", formatter.StyledIdentify(res))
}

func (r *Runner) identifyFile(ctx context.Context, progress chan<- tasks.ProgressUpdate, user, path string) (*tasks.IdentifyResult, error) {
	name := filepath.Base(path)
	if !services.SupportedAudio(name) {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnsupportedFormat, filepath.Ext(name))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}
	if info.Size() > maxAudioBytes {
		return nil, fmt.Errorf("%w: audio file exceeds %d bytes", shared.ErrInvalidInput, maxAudioBytes)
	}

	audio, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}
	return r.identifier.IdentifyAudio(ctx, progress, user, name, audio)
}
