// Package main provides the carousel CLI: it runs a deck in the terminal or
// films it into PNG frames with a contact sheet.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/teranos/carousel"
	"github.com/teranos/carousel/clock"
	"github.com/teranos/carousel/config"
	"github.com/teranos/carousel/film"
	"github.com/teranos/carousel/logger"
	"github.com/teranos/carousel/slides"
	"github.com/teranos/carousel/trip"
	"github.com/teranos/carousel/tui"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "carousel",
	Short: "Infinite-loop slide carousel for the terminal",
	Long: `carousel runs a deck of panels as an infinite-loop carousel with
autoplay, swipe and keyboard navigation, or films it into PNG frames.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run <deck.yaml>",
	Short: "Run a deck interactively",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeck,
}

var filmCmd = &cobra.Command{
	Use:   "film <deck.yaml>",
	Short: "Film a deck into PNG frames, a manifest and a contact sheet",
	Long: `Film drives the deck on a virtual clock. Every step produces a frame
mid-transition and one after the slides settled.`,
	Args: cobra.ExactArgs(1),
	RunE: filmDeck,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "carousel v%s\n", version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to file instead of stderr")
	rootCmd.PersistentFlags().String("mode", "", "Override the deck's layout mode (tags|offset)")

	runCmd.Flags().Bool("autoplay", false, "Override the deck's autoplay setting")

	filmCmd.Flags().String("out", "film", "Output directory")
	filmCmd.Flags().Int("steps", 5, "Number of navigation steps to film")
	filmCmd.Flags().Bool("backward", false, "Navigate backward instead of forward")
	filmCmd.Flags().Int("width", 80, "Frame width in columns")
	filmCmd.Flags().Int("height", 24, "Frame height in rows")

	mustBind("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	mustBind("log-file", rootCmd.PersistentFlags().Lookup("log-file"))
	mustBind("mode", rootCmd.PersistentFlags().Lookup("mode"))
	mustBind("run.autoplay", runCmd.Flags().Lookup("autoplay"))
	for _, name := range []string{"out", "steps", "backward", "width", "height"} {
		mustBind("film."+name, filmCmd.Flags().Lookup(name))
	}

	rootCmd.AddCommand(runCmd, filmCmd, versionCmd)
	cobra.OnInitialize(initConfig)
}

func mustBind(key string, f *pflag.Flag) {
	if err := viper.BindPFlag(key, f); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", key, err)
		os.Exit(1)
	}
}

func initConfig() {
	host, err := config.HostFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading environment: %v\n", err)
		os.Exit(1)
	}

	level := viper.GetString("log-level")
	if level == "" {
		level = host.LogLevel
	}
	file := viper.GetString("log-file")
	if file == "" {
		file = host.LogFile
	}
	if err := logger.Configure(level, file); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
}

// loadDeck reads a deck and applies host preferences and flag overrides.
func loadDeck(cmd *cobra.Command, path string) (config.Deck, error) {
	deck, err := config.LoadDeck(path)
	if err != nil {
		return config.Deck{}, err
	}
	host, err := config.HostFromEnv()
	if err != nil {
		return config.Deck{}, err
	}
	deck.Settings = deck.Settings.WithHost(host)

	if mode := viper.GetString("mode"); mode != "" {
		deck.Settings.Mode = config.Mode(mode)
	}
	if f := cmd.Flags().Lookup("autoplay"); f != nil && f.Changed {
		deck.Settings.AutoplayEnabled = viper.GetBool("run.autoplay")
	}
	return deck, nil
}

func errorHook(id uuid.UUID, t *trip.Trip) {
	logger.Logger.Error("carousel "+t.Severity.String(), append([]interface{}{"carousel", id.String()[:8]}, t.Keyvals()...)...)
}

func runDeck(cmd *cobra.Command, args []string) error {
	deck, err := loadDeck(cmd, args[0])
	if err != nil {
		return err
	}

	c, err := carousel.New(deck.Settings, deck.Panels,
		carousel.WithLogger(logger.NewStyledLogger("Carousel")),
		carousel.WithErrorHook(errorHook))
	if err != nil {
		// The instance is disabled; show the panels as static content.
		writeStatic(cmd.OutOrStdout(), deck.Panels)
		return err
	}
	defer c.Close()

	m := tui.New(c)
	defer m.Close()

	logger.Logger.Debug("running deck", "deck", args[0], "panels", len(deck.Panels), "mode", deck.Settings.Mode)
	_, err = tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	).Run()
	return err
}

func filmDeck(cmd *cobra.Command, args []string) error {
	deck, err := loadDeck(cmd, args[0])
	if err != nil {
		return err
	}

	clk := clock.NewManual(time.Now())
	c, err := carousel.New(deck.Settings, deck.Panels,
		carousel.WithClock(clk),
		carousel.WithLogger(logger.NewStyledLogger("Film")),
		carousel.WithErrorHook(errorHook))
	if err != nil {
		return err
	}
	defer c.Close()

	cfg := film.DefaultConfig()
	cfg.Width = viper.GetInt("film.width")
	cfg.Height = viper.GetInt("film.height")

	cam := tui.New(c, tui.WithWidth(cfg.Width))
	defer cam.Close()

	out := viper.GetString("film.out")
	name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	reel, err := film.NewReel(out, name, cfg)
	if err != nil {
		return err
	}

	dir := slides.Forward
	if viper.GetBool("film.backward") {
		dir = slides.Backward
	}
	m, err := film.Shoot(film.Script{
		Carousel:  c,
		Clock:     clk,
		Camera:    cam,
		Steps:     viper.GetInt("film.steps"),
		Direction: dir,
	}, reel)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d frames written to %s\n", len(m.Frames), filepath.Join(out, film.SheetFile))
	return nil
}

// writeStatic prints panels in order, the fallback for a disabled carousel.
func writeStatic(w io.Writer, panels []slides.Panel) {
	for _, p := range panels {
		fmt.Fprintf(w, "## %s\n", p.Title)
		if p.Body != "" {
			fmt.Fprintf(w, "%s\n", p.Body)
		}
		fmt.Fprintln(w)
	}
}
