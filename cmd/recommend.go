package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/soundmatch/internal/formatter"
	"github.com/desertthunder/soundmatch/internal/models"
	"github.com/desertthunder/soundmatch/internal/shared"
	"github.com/desertthunder/soundmatch/internal/tasks"
	"github.com/urfave/cli/v3"
)

const noHistoryMessage = "I need to learn your music taste first. Identify some songs!"

// Recommend ranks tracks for a user from their recent history and an optional mood.
func (r *Runner) Recommend(ctx context.Context, cmd *cli.Command) error {
	if r.recommender == nil {
		return fmt.Errorf("%w: recommendations are not configured", shared.ErrServiceUnavailable)
	}

	user := cmd.String("user")
	mood := strings.ToLower(strings.TrimSpace(cmd.String("mood")))
	if mood != "" && !tasks.ValidMood(mood) {
		r.logger.Warn("unknown mood, using default genres", "mood", mood, "known", strings.Join(tasks.Moods(), ", "))
	}

	f, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	progress, stop := r.watch(cmd.Bool("verbose") && f == formatter.Styled)
	recs, signals, err := r.recommender.ForUser(ctx, progress, user, mood)
	stop()
	if errors.Is(err, shared.ErrNoHistory) {
		return r.writePlain("%s\n", formatter.Warning(noHistoryMessage))
	}
	if err != nil {
		return err
	}

	r.logger.Info("recommendations ready", "user", user, "count", len(recs), "artists", signals.TopArtists, "genres", signals.TopGenres)
	data, err := formatter.Recommendations(f, recommendTitle(user, mood), recs)
	if err != nil {
		return err
	}
	return r.emit(cmd, "recommendations", f, data)
}

func recommendTitle(user, mood string) string {
	if mood == "" {
		return "Recommendations for " + user
	}
	return fmt.Sprintf("Recommendations for %s (%s)", user, mood)
}

// Analyze prints the top artists and genres derived from a user's recent history.
func (r *Runner) Analyze(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireHistory(); err != nil {
		return err
	}

	user := cmd.String("user")
	records, err := r.history.Recent(ctx, user, models.HistoryWindow)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	signals := tasks.Analyze(records)

	if cmd.Bool("json") {
		return r.writeJSON(signals, true)
	}
	return r.writePlain("%s", formatter.StyledSignals(user, signals))
}
