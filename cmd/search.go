package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/soundmatch/internal/formatter"
	"github.com/desertthunder/soundmatch/internal/models"
	"github.com/desertthunder/soundmatch/internal/query"
	"github.com/desertthunder/soundmatch/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search parses the query expression and fans it out to every configured platform.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	raw := strings.Join(cmd.Args().Slice(), " ")
	q := query.ParseOrText(raw)
	if p := cmd.String("platform"); p != "" {
		q.Platform = query.NormalizePlatform(p)
	}
	if q.IsEmpty() {
		return fmt.Errorf("%w: search needs a song or artist", shared.ErrMissingArgument)
	}
	if q.Platform != "" && len(r.search.Providers(q.Platform)) == 0 {
		r.logger.Warn("no provider for platform", "platform", q.Platform)
	}

	f, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	r.logger.Debug("searching", "query", q.Fields())
	progress, stop := r.watch(cmd.Bool("verbose") && f == formatter.Styled)
	tracks := r.search.SearchAll(ctx, progress, q)
	stop()

	if limit := r.config.Search.ResultLimit; limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}
	if tracks == nil {
		tracks = []models.Track{}
	}
	r.logger.Info("search complete", "results", len(tracks))

	data, err := formatter.Tracks(f, searchTitle(q), tracks)
	if err != nil {
		return err
	}
	return r.emit(cmd, "search_results", f, data)
}

func searchTitle(q models.Query) string {
	title := "Results for " + q.Text()
	if q.Year != "" {
		title += " (" + q.Year + ")"
	}
	if q.Platform != "" {
		title += " on " + q.Platform.DisplayName()
	}
	return title
}
