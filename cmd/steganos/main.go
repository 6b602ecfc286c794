package main

import (
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"text/tabwriter"

	"github.com/rafapolo/steganos"
	"github.com/rafapolo/steganos/transform"
	"github.com/urfave/cli/v2"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

type closer func() error

func setup(c *cli.Context, options ...steganos.Option) (*steganos.Steganos, closer, error) {
	logger := log.New(ioutil.Discard, "", 0)
	var progress io.Writer = ioutil.Discard
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
		progress = os.Stderr
	}
	options = append(options, steganos.WithProgress(progress))

	done := func() error { return nil }
	if db := c.String("db"); db != "" {
		catalog, err := steganos.NewCatalog(db)
		if err != nil {
			return nil, nil, err
		}
		options = append(options, steganos.WithCatalog(catalog))
		done = catalog.Close
	}

	return steganos.New(logger, options...), done, nil
}

// run handles either a single path with an optional output, or a batch.
func run(c *cli.Context, one func(string, string) (string, error), all func([]string, int) ([]string, error)) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.Name, 1)
	}

	if c.NArg() == 1 {
		out, err := one(c.Args().First(), c.String("output"))
		if err != nil {
			return cli.Exit(err, 1)
		}
		fmt.Fprintln(c.App.Writer, out)
		return nil
	}

	if c.String("output") != "" {
		return cli.Exit("--output can only be used with a single file", 1)
	}

	outs, err := all(c.Args().Slice(), c.Int("jobs"))
	if err != nil {
		return cli.Exit(err, 1)
	}
	for _, out := range outs {
		fmt.Fprintln(c.App.Writer, out)
	}
	return nil
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "write to `PATH` instead of the default name",
	}
}

func jobsFlag() cli.Flag {
	return &cli.IntFlag{
		Name:    "jobs",
		Aliases: []string{"j"},
		Usage:   "number of files to process at once, 0 for one per CPU",
	}
}

func main() {
	app := cli.NewApp()

	app.Name = "steganos"
	app.Usage = "Store files as PNG images and get them back"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"STEGANOS_DB"},
			Usage:   "path to catalog database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "encode",
			Usage:       "Encode files into PNG images",
			Description: "Each FILE is written to FILE.png",
			ArgsUsage:   "FILE...",
			Flags: []cli.Flag{
				outputFlag(),
				jobsFlag(),
				&cli.StringFlag{
					Name:  "compression",
					Value: transform.Deflate.String(),
					Usage: "compression method, deflate or zstd",
				},
			},
			Action: func(c *cli.Context) error {
				method, err := transform.ParseMethod(c.String("compression"))
				if err != nil {
					return cli.Exit(err, 1)
				}

				s, done, err := setup(c, steganos.WithCompression(method))
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer done()

				return run(c, s.Encode, s.EncodeAll)
			},
		},
		{
			Name:        "decode",
			Usage:       "Decode PNG images back into files",
			Description: "Each IMAGE is written next to it as out-TITLE",
			ArgsUsage:   "IMAGE...",
			Flags: []cli.Flag{
				outputFlag(),
				jobsFlag(),
			},
			Action: func(c *cli.Context) error {
				s, done, err := setup(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer done()

				return run(c, s.Decode, s.DecodeAll)
			},
		},
		{
			Name:      "info",
			Usage:     "Show the metadata of a PNG image",
			ArgsUsage: "IMAGE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.Name, 1)
				}

				s, done, err := setup(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer done()

				meta, err := s.Info(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}

				length := "unknown"
				if meta.Length >= 0 {
					length = fmt.Sprint(meta.Length)
				}
				compression := meta.Compression
				switch {
				case meta.PayloadLength >= 0:
					length = fmt.Sprintf("%d bytes, raw", meta.PayloadLength)
					compression = transform.Zstandard.String()
				case compression == "":
					compression = transform.Deflate.String()
				}

				w := tabwriter.NewWriter(c.App.Writer, 0, 8, 1, ' ', 0)
				fmt.Fprintf(w, "Author:\t%s\n", meta.Author)
				fmt.Fprintf(w, "Title:\t%s\n", meta.Title)
				fmt.Fprintf(w, "Length:\t%s\n", length)
				fmt.Fprintf(w, "Compression:\t%s\n", compression)
				return w.Flush()
			},
		},
		{
			Name:  "list",
			Usage: "List the images recorded in the catalog",
			Action: func(c *cli.Context) error {
				if c.String("db") == "" {
					return cli.Exit("no catalog, use --db or STEGANOS_DB", 1)
				}

				catalog, err := steganos.NewCatalog(c.String("db"))
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer catalog.Close()

				entries, err := catalog.List()
				if err != nil {
					return cli.Exit(err, 1)
				}

				w := tabwriter.NewWriter(c.App.Writer, 0, 8, 2, ' ', 0)
				fmt.Fprintln(w, "IMAGE\tTITLE\tSIZE\tDIMENSION\tCOMPRESSION\tSHA1")
				for _, e := range entries {
					fmt.Fprintf(w, "%s\t%s\t%d\t%dx%d\t%s\t%s\n", e.Image, e.Title, e.Size, e.Dimension, e.Dimension, e.Compression, e.SHA1)
				}
				return w.Flush()
			},
		},
		{
			Name:      "verify",
			Usage:     "Check PNG images against the catalog",
			ArgsUsage: "IMAGE...",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.Name, 1)
				}
				if c.String("db") == "" {
					return cli.Exit("no catalog, use --db or STEGANOS_DB", 1)
				}

				s, done, err := setup(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer done()

				for _, path := range c.Args().Slice() {
					if _, err := s.Verify(path); err != nil {
						return cli.Exit(err, 1)
					}
					fmt.Fprintf(c.App.Writer, "%s: OK\n", path)
				}
				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
