package main

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"course-migrator/pkg/api"
	"course-migrator/pkg/dataset"
	"course-migrator/pkg/domain"
)

func newScrapeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scrape [url]",
		Short: "Scrape one course into result.json and lesson_data.json",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context(), opts, false, nil)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			url := a.cfg.Scraper.CourseURL
			if len(args) == 1 {
				url = args[0]
			}
			if url == "" {
				return errors.New("no course URL given and scraper.course_url is empty")
			}

			res := a.svc.Scrape(cmd.Context(), url)
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			return scrapeError(res)
		},
	}
}

func scrapeError(res dataset.Result) error {
	switch res.Status {
	case domain.StatusSuccess, domain.StatusDuplicate:
		return nil
	}
	if res.Err != nil {
		return fmt.Errorf("%s: %w", res.Status, res.Err)
	}
	return errors.New(string(res.Status))
}

func newScrapeFeedCommand(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "scrape-feed <sitemap|feed|file>",
		Short: "Discover course URLs and scrape each new one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context(), opts, false, nil)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			results, err := a.svc.ScrapeFeed(cmd.Context(), args[0], limit)
			counts := map[domain.ScrapeStatus]int{}
			for _, r := range results {
				counts[r.Status]++
			}
			if printErr := printJSON(cmd.OutOrStdout(), counts); printErr != nil {
				return printErr
			}
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "max", 10, "maximum number of courses to scrape (<=0 means no limit)")
	return cmd
}

func newPublishCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Publish the scraped course in the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context(), opts, true, nil)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			res, err := a.svc.Publish(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func newThumbnailCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "thumbnail <url|video-id>",
		Short: "Attach a thumbnail to the most recently published course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context(), opts, true, nil)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			out, err := a.svc.RetargetThumbnail(cmd.Context(), args[0])
			if printErr := printJSON(cmd.OutOrStdout(), out); printErr != nil {
				return printErr
			}
			return err
		},
	}
}

func newCheckLoginCommand(opts *rootOptions) *cobra.Command {
	var lms bool
	cmd := &cobra.Command{
		Use:   "check-login",
		Short: "Verify the configured source-site session cookies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context(), opts, lms, nil)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			ok, err := a.svc.CheckLogin(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("not logged in: refresh the cookies file")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged in")

			if !lms {
				return nil
			}
			current, err := a.svc.VerifyCurrent(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "lms reachable, current course %d (%s)\n", current.CourseID, current.CourseName)
			return nil
		},
	}
	cmd.Flags().BoolVar(&lms, "lms", false, "also fetch the current course from the LMS")
	return cmd
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP job API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			a, err := loadApp(cmd.Context(), opts, true, reg)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			srv := api.NewServer(cmd.Context(), api.Config{
				Addr:     addr,
				Gatherer: reg,
				Debug:    opts.debug,
				Logger:   a.log,
			}, a.svc)
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to server.addr)")
	return cmd
}
