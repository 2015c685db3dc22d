package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/soundmatch/internal/formatter"
	"github.com/desertthunder/soundmatch/internal/models"
	"github.com/desertthunder/soundmatch/internal/repositories"
	"github.com/desertthunder/soundmatch/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryAdd appends one record to a user's history.
func (r *Runner) HistoryAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireHistory(); err != nil {
		return err
	}

	title := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: song title", shared.ErrMissingArgument)
	}

	saved, err := r.history.Append(ctx, models.HistoryRecord{
		UserID:    cmd.String("user"),
		Title:     title,
		Artist:    cmd.String("artist"),
		Genre:     cmd.String("genre"),
		SourceURL: cmd.String("url"),
	})
	if err != nil {
		return err
	}

	r.logger.Debug("history record saved", "id", saved.ID, "user", saved.UserID)
	return r.writePlain("%s %s - %s\n", formatter.Success("Saved"), saved.Title, saved.Artist)
}

// HistoryList prints a user's recent records, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireHistory(); err != nil {
		return err
	}

	records, err := r.history.List(ctx, repositories.HistoryFilter{
		UserID: cmd.String("user"),
		Artist: cmd.String("artist"),
		Limit:  int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}
	if records == nil {
		records = []models.HistoryRecord{}
	}

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(records, true)
	case cmd.Bool("csv"):
		data, err := formatter.HistoryToCSV(records)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	default:
		return r.writePlain("%s", formatter.StyledHistory(records))
	}
}

// HistoryClear deletes every record for a user.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireHistory(); err != nil {
		return err
	}

	user := cmd.String("user")
	n, err := r.history.Clear(ctx, user)
	if err != nil {
		return err
	}

	r.logger.Info("history cleared", "user", user, "deleted", n)
	return r.writePlain("Deleted %d record(s) for %s\n", n, user)
}

// Stats prints totals and top artists and genres over a user's full history.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireHistory(); err != nil {
		return err
	}

	stats, err := r.history.Stats(ctx, cmd.String("user"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}
	return r.writePlain("%s", formatter.StyledStats(stats))
}
