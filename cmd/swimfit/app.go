package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	swimdata "github.com/PeterK-end/swim-data-analyser"
	"github.com/PeterK-end/swim-data-analyser/config"
	"github.com/PeterK-end/swim-data-analyser/pipeline"
	"github.com/PeterK-end/swim-data-analyser/server"
	"github.com/PeterK-end/swim-data-analyser/store"
)

const envNoColor = "NO_COLOR"

var errMissingInput = errors.New("an input file is required")

func init() {
	if _, exists := os.LookupEnv(envNoColor); exists {
		disableStyling()
	}

	pterm.Error.MessageStyle = pterm.NewStyle(pterm.FgRed)
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "ERROR",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// disableStyling disables all styling provided by pterm.
func disableStyling() {
	pterm.DisableColor()
	pterm.DisableStyling()
	pterm.Info.Prefix.Text = ""
	pterm.Success.Prefix.Text = ""
	pterm.Warning.Prefix.Text = ""
	pterm.Error.Prefix.Text = ""
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "swimfit",
		Usage:     "Inspect, edit and export pool swim FIT files.",
		UsageText: "[COMMAND] [OPTIONS]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the config file (defaults to the XDG config dir).",
				EnvVars: []string{"SWIMFIT_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable coloured output.",
			},
		},
		Before: func(ctx *cli.Context) error {
			if ctx.Bool("no-color") {
				disableStyling()
			}

			return nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			decodeCommand(),
			encodeCommand(),
			summaryCommand(),
			exportCommand(),
		},
	}
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	path := ctx.String("config")
	if path == "" {
		var err error

		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	return config.Load(path)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the session editor HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overrides server.addr.",
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			if addr := ctx.String("addr"); addr != "" {
				cfg.Server.Addr = addr
			}

			logger, closer := cfg.Log.NewLogger(os.Stderr)
			defer closer.Close()

			st, err := store.Open(cfg.Storage.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(cfg, st, logger).ListenAndServe(sigCtx)
		},
	}
}

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Convert a FIT file to the editable JSON document",
		ArgsUsage: "<file.fit>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write JSON here instead of stdout.",
			},
		},
		Action: func(ctx *cli.Context) error {
			in := ctx.Args().First()
			if in == "" {
				return errMissingInput
			}

			data, err := os.ReadFile(in)
			if err != nil {
				return err
			}

			doc, report, err := swimdata.Decode(data)
			if err != nil {
				return err
			}

			for _, w := range report.Warnings() {
				pterm.Warning.Println(w)
			}

			out, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return err
			}

			return writeOutput(ctx, ctx.String("out"), append(out, '\n'))
		},
	}
}

func encodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "encode",
		Usage:     "Convert a JSON document back to a FIT file",
		ArgsUsage: "<document.json>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"o"},
				Usage:    "Destination FIT file.",
				Required: true,
			},
		},
		Action: func(ctx *cli.Context) error {
			in := ctx.Args().First()
			if in == "" {
				return errMissingInput
			}

			doc, err := loadDocument(in)
			if err != nil {
				return err
			}

			data, err := swimdata.Encode(doc, swimdata.EncodeOptions{})
			if err != nil {
				return err
			}

			if err := os.WriteFile(ctx.String("out"), data, 0o644); err != nil {
				return err
			}

			pterm.Success.Printfln("wrote %s (%d bytes)", ctx.String("out"), len(data))

			return nil
		},
	}
}

func summaryCommand() *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     "Print stroke, interval and best time tables",
		ArgsUsage: "<file.fit|document.json>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "notes",
				Usage: "Print the plain text training notes instead of tables.",
			},
		},
		Action: func(ctx *cli.Context) error {
			in := ctx.Args().First()
			if in == "" {
				return errMissingInput
			}

			doc, err := loadDocument(in)
			if err != nil {
				return err
			}

			if ctx.Bool("notes") {
				_, err := fmt.Fprint(ctx.App.Writer, swimdata.BuildNotes(doc))
				return err
			}

			printSummary(ctx.App.Writer, doc)

			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write the analysis bundle for a FIT file",
		ArgsUsage: "<file.fit>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"o"},
				Usage:    "Output directory.",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Lengths table format: parquet or csv (defaults to export.format).",
			},
			&cli.BoolFlag{
				Name:  "overwrite",
				Usage: "Allow writing into a non-empty directory (defaults to export.overwrite).",
			},
			&cli.BoolFlag{
				Name:  "copy-source",
				Usage: "Copy the input FIT file into the bundle.",
				Value: true,
			},
		},
		Action: func(ctx *cli.Context) error {
			in := ctx.Args().First()
			if in == "" {
				return errMissingInput
			}

			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			format := cfg.Export.Format
			if ctx.IsSet("format") {
				format = ctx.String("format")
			}

			overwrite := cfg.Export.Overwrite
			if ctx.IsSet("overwrite") {
				overwrite = ctx.Bool("overwrite")
			}

			spinner, _ := pterm.DefaultSpinner.Start("Exporting " + filepath.Base(in))

			res, err := pipeline.Run(pipeline.Options{
				FitPath:    in,
				OutDir:     ctx.String("out"),
				Format:     format,
				Overwrite:  overwrite,
				CopySource: ctx.Bool("copy-source"),
			})
			if err != nil {
				spinner.Fail(err.Error())
				return err
			}

			spinner.Success("Export written to " + res.OutputDir)

			printTable(ctx.App.Writer, [][]string{
				{"Artifact", "Path"},
				{"manifest", res.ManifestPath},
				{"document", res.DocumentPath},
				{"summary", res.SummaryPath},
				{"lengths", res.LengthsPath},
				{"messages index", res.MessagesIndexPath},
				{"notes", res.NotesPath},
			})

			for _, w := range res.Warnings {
				pterm.Warning.Println(w)
			}

			return nil
		},
	}
}

// loadDocument reads a JSON document or decodes a FIT file, by extension.
func loadDocument(path string) (*swimdata.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return swimdata.ParseDocument(data)
	}

	doc, _, err := swimdata.Decode(data)

	return doc, err
}

func writeOutput(ctx *cli.Context, path string, data []byte) error {
	if path == "" {
		_, err := ctx.App.Writer.Write(data)
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

