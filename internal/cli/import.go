package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	slidescene "github.com/A-NextSlide/nextslide-sub001"
)

// importOpts holds the command-line flags for the import command.
type importOpts struct {
	output   string // deck JSON path (stdout if empty)
	validate bool   // fail when the deck breaks scene-graph invariants
}

func (c *CLI) importCommand() *cobra.Command {
	var opts importOpts

	cmd := &cobra.Command{
		Use:   "import [file.pptx]",
		Short: "Convert a presentation into deck JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromFlags(cmd)
			if err != nil {
				return err
			}
			return c.runImport(cmd.Context(), cmd.OutOrStdout(), args[0], cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&opts.validate, "validate", true, "check the deck before writing it")

	return cmd
}

func (c *CLI) runImport(ctx context.Context, stdout io.Writer, input string, cfg Config, opts importOpts) error {
	prog := newProgress(c.Logger)
	deck, err := c.importDeck(ctx, input, cfg)
	if err != nil {
		return err
	}
	if opts.validate {
		if err := deck.Validate(); err != nil {
			return err
		}
	}

	out := stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(deck); err != nil {
		return fmt.Errorf("write deck: %w", err)
	}
	prog.done(fmt.Sprintf("Imported %d slides, %d components", deck.Metadata.Stats.Slides, deck.Metadata.Stats.Components))
	return nil
}

// importDeck reads and imports the file, logging per-slide failures.
func (c *CLI) importDeck(ctx context.Context, input string, cfg Config) (*slidescene.Deck, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	deck, err := slidescene.ImportFile(input, cfg.ImportOptions(c.Logger)...)
	if err != nil {
		return nil, err
	}
	for _, s := range deck.Slides {
		if s.Error != "" {
			c.Logger.Warn("slide replaced by placeholder", "slide", s.Index+1, "err", s.Error)
		}
	}
	return deck, nil
}
