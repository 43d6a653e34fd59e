// Command tileview shows a large bitmap as a grid of GPU texture tiles.
//
// Usage:
//
//	tileview view [--window desktop|headless] [--vertex FILE] [--fragment FILE] FILE
//	tileview info FILE
//	tileview pattern [--width N] [--height N] FILE
//
// Every failure funnels into one handler in main, which logs the error,
// prints it to stderr and exits with status 1.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "github.com/gogpu/wgpu/hal/allbackends"
	"github.com/urfave/cli/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/tileview"
	"github.com/gogpu/tileview/bitmap"
	"github.com/gogpu/tileview/internal/gpu"
	"github.com/gogpu/tileview/tile"
	"github.com/gogpu/tileview/window"
	_ "github.com/gogpu/tileview/window/desktop"
	"github.com/gogpu/tileview/window/headless"
)

var errUsage = errors.New("missing FILE argument")

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fatal(err)
	}
}

// fatal is the single exit point for errors.
func fatal(err error) {
	tileview.Logger().Error("tileview: fatal", "kind", tileview.Kind(err).String(), "error", err)
	fmt.Fprintf(os.Stderr, "tileview: %v\n", err)
	os.Exit(1)
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "tileview"
	app.Usage = "display a large bitmap as GPU texture tiles"
	app.Version = "0.1.0"

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			EnvVars: []string{"TILEVIEW_VERBOSE"},
			Usage:   "log debug diagnostics to stderr",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Value: "text",
			Usage: "log format: text or json",
		},
	}
	app.Before = setupLogging

	app.Commands = []*cli.Command{
		{
			Name:      "view",
			Usage:     "Render a bitmap in a window",
			ArgsUsage: "FILE",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "window",
					EnvVars: []string{"TILEVIEW_WINDOW"},
					Usage:   "window provider (" + strings.Join(window.Available(), ", ") + "); empty picks the best available",
				},
				&cli.StringFlag{Name: "vertex", Usage: "WGSL vertex shader file (default: built in)"},
				&cli.StringFlag{Name: "fragment", Usage: "WGSL fragment shader file (default: built in)"},
				&cli.StringFlag{
					Name:  "backend",
					Value: "software",
					Usage: "GPU backend for the headless window (" + strings.Join(gpu.BackendNames(), ", ") + ")",
				},
				&cli.IntFlag{Name: "frames", Value: 1, Usage: "frames to render headless; 0 runs until quit"},
				&cli.StringFlag{Name: "snapshot", Usage: "write the last headless frame to this BMP file (.zst compresses)"},
				&cli.IntFlag{Name: "width", Value: window.DefaultWidth, Usage: "window width"},
				&cli.IntFlag{Name: "height", Value: window.DefaultHeight, Usage: "window height"},
				&cli.StringFlag{Name: "title", Value: window.DefaultTitle, Usage: "window title"},
			},
			Action: viewAction,
		},
		{
			Name:      "info",
			Usage:     "Print the header and tile plan of a bitmap",
			ArgsUsage: "FILE",
			Action:    infoAction,
		},
		{
			Name:      "pattern",
			Usage:     "Write a gradient test bitmap",
			ArgsUsage: "FILE",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "width", Value: 1024, Usage: "image width"},
				&cli.IntFlag{Name: "height", Value: 768, Usage: "image height"},
			},
			Action: patternAction,
		},
	}
	return app
}

func setupLogging(c *cli.Context) error {
	level := slog.LevelWarn
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch c.String("log-format") {
	case "text":
		h = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		h = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.String("log-format"))
	}
	tileview.SetLogger(slog.New(h))
	return nil
}

// fileArg returns the FILE argument or shows the command's help.
func fileArg(c *cli.Context) (string, error) {
	if c.NArg() < 1 {
		_ = cli.ShowCommandHelp(c, c.Command.Name)
		return "", errUsage
	}
	return c.Args().First(), nil
}

func viewAction(c *cli.Context) error {
	path, err := fileArg(c)
	if err != nil {
		return err
	}

	e := tileview.New(tileview.WithShaders(c.String("vertex"), c.String("fragment")))
	if err := e.Load(path); err != nil {
		return err
	}

	p, err := provider(c)
	if err != nil {
		return err
	}
	if err := p.Open(window.Config{
		Width:  c.Int("width"),
		Height: c.Int("height"),
		Title:  c.String("title"),
	}); err != nil {
		return err
	}
	defer p.Close()
	// Runs before p.Close: GPU objects go before the device.
	defer e.Close()

	return e.Run(p)
}

// provider resolves the --window flag and configures headless runs.
func provider(c *cli.Context) (window.Provider, error) {
	var p window.Provider
	if name := c.String("window"); name != "" {
		var err error
		if p, err = window.Get(name); err != nil {
			return nil, err
		}
	} else if p = window.Default(); p == nil {
		return nil, fmt.Errorf("no window provider available")
	}

	if hp, ok := p.(*headless.Provider); ok {
		backend, err := gpu.ParseBackend(c.String("backend"))
		if err != nil {
			return nil, err
		}
		hp.Apply(
			headless.WithBackend(backend),
			headless.WithFrames(c.Int("frames")),
			headless.WithSnapshot(c.String("snapshot")),
		)
	}
	return p, nil
}

func infoAction(c *cli.Context) error {
	path, err := fileArg(c)
	if err != nil {
		return err
	}
	r, err := bitmap.Open(path)
	if err != nil {
		return err
	}
	h := r.Header()
	if err := r.Close(); err != nil {
		return err
	}
	plan, err := tile.NewPlan(int(h.Width), int(h.Height), tile.Edge)
	if err != nil {
		return err
	}

	texelBytes := int64(plan.Count()) * int64(plan.Edge) * int64(plan.Edge) * 4
	meshBytes := int64(len(plan.Vertices))*12 + int64(len(plan.Indices))*4

	pr := message.NewPrinter(language.English)
	w := c.App.Writer
	pr.Fprintf(w, "file:        %s\n", path)
	pr.Fprintf(w, "size:        %d x %d pixels (%d bytes of pixel data)\n", h.Width, h.Height, h.PixelBytes())
	pr.Fprintf(w, "data offset: %d\n", h.DataOffset)
	pr.Fprintf(w, "tiles:       %d x %d = %d (%d px edge)\n", plan.TilesX, plan.TilesY, plan.Count(), plan.Edge)
	pr.Fprintf(w, "mesh:        %d vertices, %d strip indices\n", len(plan.Vertices), len(plan.Indices))
	pr.Fprintf(w, "gpu memory:  %d bytes of texels, %d bytes of mesh\n", texelBytes, meshBytes)
	return nil
}

func patternAction(c *cli.Context) error {
	path, err := fileArg(c)
	if err != nil {
		return err
	}
	width, height := c.Int("width"), c.Int("height")
	if width < 1 || height < 1 {
		return fmt.Errorf("pattern: invalid size %dx%d", width, height)
	}
	if err := bitmap.WriteFile(path, width, height, tile.Pattern(width, height)); err != nil {
		return err
	}
	tileview.Logger().Info("tileview: pattern written", "path", path, "width", width, "height", height)
	return nil
}
