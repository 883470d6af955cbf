package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"docset/backend/crdt"
	"docset/backend/docset"
	"docset/backend/docset/impl"
	"docset/backend/script"
	"docset/backend/types"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"
)

var logIO = zerolog.ConsoleWriter{
	Out:        os.Stderr,
	TimeFormat: time.RFC3339,
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docset",
		Usage: "replay causally ordered change-sets into document histories",
		Commands: []*cli.Command{
			{
				Name:      "replay",
				Usage:     "replay a YAML script of change-sets and print the resulting histories",
				ArgsUsage: "SCRIPT",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML configuration file"},
					&cli.StringFlag{Name: "scheme", Value: "scalar", Usage: "version scheme when no configuration file is given"},
					&cli.StringFlag{Name: "concurrent", Usage: "concurrent policy (reject or merge) when no configuration file is given, required by the vector scheme"},
					&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log every decision"},
				},
				Action: replay,
			},
			{
				Name:      "compare",
				Usage:     "print how version A is ordered relative to version B",
				ArgsUsage: "A B",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "scheme", Value: "vector", Usage: "version scheme"},
				},
				Action: compare,
			},
		},
	}
}

func replay(c *cli.Context) error {
	if c.NArg() != 1 {
		return xerrors.New("replay expects exactly one script")
	}

	fc := docset.FileConfig{
		Scheme:     c.String("scheme"),
		Concurrent: c.String("concurrent"),
		LogLevel:   "warn",
	}
	if path := c.String("config"); path != "" {
		loaded, err := docset.LoadFileConfig(path)
		if err != nil {
			return err
		}
		fc = loaded
	}
	if c.Bool("verbose") {
		fc.LogLevel = "debug"
	}

	conf, err := fc.Configuration()
	if err != nil {
		return err
	}
	identity, err := crdt.IdentityByName(fc.Identity)
	if err != nil {
		return err
	}
	engine := crdt.NewEngine()
	conf.Engine = engine
	conf.Identity = identity
	conf.LogWriter = logIO

	ds, err := impl.NewDocSet(conf)
	if err != nil {
		return xerrors.Errorf("failed to create document set: %w", err)
	}

	s, err := script.Load(c.Args().First())
	if err != nil {
		return err
	}

	runner := script.Runner{
		DocSet: ds,
		Scheme: conf.Scheme,
		Engine: engine,
		Actor:  identity.NewActorID(),
	}
	out := c.App.Writer
	for _, res := range runner.Run(s) {
		if res.Err != nil {
			fmt.Fprintf(out, "step %d %s %s: rejected: %v\n", res.Step, res.Action, res.Doc, res.Err)
			continue
		}
		fmt.Fprintf(out, "step %d %s %s: %q\n", res.Step, res.Action, res.Doc, res.Text)
	}

	printHistories(out, ds)
	return nil
}

func printHistories(out io.Writer, ds docset.DocSet) {
	for _, docID := range ds.DocIDs() {
		history, _ := ds.History(docID)
		fmt.Fprintf(out, "%s: %d snapshot(s)\n", docID, len(history))
		for i, snap := range history {
			text := ""
			if d, ok := snap.Doc.(*crdt.Doc); ok {
				text = d.String()
			}
			fmt.Fprintf(out, "  [%d] version=%s start=%s %q\n", i, snap.Version, snap.StartTimestamp.Format(time.RFC3339), text)
		}
	}
}

func compare(c *cli.Context) error {
	if c.NArg() != 2 {
		return xerrors.New("compare expects two versions")
	}

	scheme, err := types.SchemeByName(c.String("scheme"))
	if err != nil {
		return err
	}
	a, err := scheme.Parse(c.Args().Get(0))
	if err != nil {
		return err
	}
	b, err := scheme.Parse(c.Args().Get(1))
	if err != nil {
		return err
	}
	order, err := scheme.Compare(a, b)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, order)
	return nil
}
