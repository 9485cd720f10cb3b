package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	slidescene "github.com/A-NextSlide/nextslide-sub001"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output string // output directory
	slide  int    // 1-based slide number, 0 renders all
	jobs   int    // parallel renders, 0 uses the config value
}

// slideReport is one entry of diagnostics.json.
type slideReport struct {
	Slide       int                     `json:"slide"`
	SlideID     string                  `json:"slideId"`
	Title       string                  `json:"title"`
	Image       string                  `json:"image"`
	Diagnostics *slidescene.Diagnostics `json:"diagnostics"`
}

func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{output: "."}

	cmd := &cobra.Command{
		Use:   "render [file.pptx]",
		Short: "Render slide previews and layout diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromFlags(cmd)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output directory")
	cmd.Flags().IntVar(&opts.slide, "slide", 0, "render only this slide (1-based)")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, "parallel renders (default from config)")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, cfg Config, opts renderOpts) error {
	prog := newProgress(c.Logger)
	deck, err := c.importDeck(ctx, input, cfg)
	if err != nil {
		return err
	}
	indices, err := selectSlides(len(deck.Slides), opts.slide)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.output, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	renderer := slidescene.NewRenderer(cfg.RenderOptions(c.Logger)...).ForDeck(deck)
	reports := make([]slideReport, len(indices))

	jobs := opts.jobs
	if jobs <= 0 {
		jobs = cfg.Render.Jobs
	}
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, idx := range indices {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			slide := deck.Slides[idx]
			data, diag, err := renderer.Render(slide)
			if err != nil {
				return err
			}
			name := slideFileName(idx)
			if err := os.WriteFile(filepath.Join(opts.output, name), data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", name, err)
			}
			c.Logger.Debug("rendered slide", "slide", idx+1, "overlaps", len(diag.Overlaps),
				"overflows", len(diag.TextOverflows), "errors", diag.Errors)
			reports[i] = slideReport{Slide: idx + 1, SlideID: slide.ID, Title: slide.Title, Image: name, Diagnostics: diag}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := writeReports(filepath.Join(opts.output, "diagnostics.json"), reports); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d slides to %s", len(indices), opts.output))
	return nil
}

// selectSlides returns the 0-based indices to render.
func selectSlides(count, slide int) ([]int, error) {
	if slide < 0 || slide > count {
		return nil, fmt.Errorf("slide %d out of range (deck has %d slides)", slide, count)
	}
	if slide > 0 {
		return []int{slide - 1}, nil
	}
	out := make([]int, count)
	for i := range out {
		out[i] = i
	}
	return out, nil
}

func slideFileName(index int) string {
	return fmt.Sprintf("slide%02d.png", index+1)
}

func writeReports(path string, reports []slideReport) error {
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("encode diagnostics: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write diagnostics: %w", err)
	}
	return nil
}
