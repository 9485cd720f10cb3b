// Package cli implements the deckrender command-line interface.
//
// deckrender imports presentation files into the slidescene deck JSON and
// renders preview images with layout diagnostics.
//
// # Commands
//
//   - import: write the deck JSON of a presentation
//   - render: write one PNG per slide plus diagnostics.json
//
// All commands support --verbose (-v) for debug logging and --config for a
// TOML configuration file.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	slidescene "github.com/A-NextSlide/nextslide-sub001"
)

// appName is the application name used for display.
const appName = "deckrender"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "deckrender converts presentations into scene graphs and previews",
		Long:         `deckrender imports PPTX files into a canonical scene graph of positioned components and renders raster previews with overlap and text-overflow diagnostics.`,
		Version:      slidescene.Version,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "TOML configuration file")

	root.AddCommand(c.importCommand())
	root.AddCommand(c.renderCommand())

	return root
}
