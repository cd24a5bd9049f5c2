package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/phanxgames/retro"
	"github.com/urfave/cli/v2"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func main() {
	app := cli.NewApp()

	app.Name = "retropack"
	app.Usage = "Convert sprite and tile sheets to the retro binary sheet format"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "pack",
			Usage:       "Pack a PNG or BMP sheet",
			Description: "Images with more than four colors are quantized with a median cut.",
			ArgsUsage:   "INPUT OUTPUT",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "palette",
					Usage: "also write the sheet's colors as a palette preset `FILE`",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}
				if err := pack(c.Args().Get(0), c.Args().Get(1), c.String("palette"), c.Bool("verbose")); err != nil {
					return cli.Exit(err, 1)
				}
				return nil
			},
		},
		{
			Name:      "info",
			Usage:     "Describe a packed sheet",
			ArgsUsage: "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}
				if err := info(c.Args().First()); err != nil {
					return cli.Exit(err, 1)
				}
				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func pack(input, output, palettePath string, verbose bool) error {
	in, err := os.Open(input)
	if err != nil {
		return err
	}
	defer in.Close()

	img, colors, err := retro.DecodeImage(in)
	if err != nil {
		return err
	}
	if err := img.CheckSheet(); err != nil {
		return err
	}

	out, err := os.Create(output)
	if err != nil {
		return err
	}
	if _, err := img.WriteTo(out); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if palettePath != "" {
		if err := writePalette(palettePath, colors); err != nil {
			return err
		}
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "%s: %dx%d, %d cells\n", input, img.Width, img.Height, img.CellCount())
		for i, c := range colors {
			r, g, b := c.RGB()
			fmt.Fprintf(os.Stderr, "  color %d: #%02x%02x%02x\n", i, r, g, b)
		}
	}
	return nil
}

func writePalette(path string, colors [retro.PaletteColors]retro.Color565) error {
	entry := make([]string, len(colors))
	for i, c := range colors {
		r, g, b := c.RGB()
		entry[i] = fmt.Sprintf("#%02x%02x%02x", r, g, b)
	}
	data, err := json.MarshalIndent(map[string][][]string{"palettes": {entry}}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func info(path string) error {
	img, err := retro.LoadIndexedImageFile(path)
	if err != nil {
		return err
	}
	fmt.Printf("size:  %dx%d\n", img.Width, img.Height)
	fmt.Printf("mode:  %v\n", img.Mode)
	if err := img.CheckSheet(); err != nil {
		fmt.Printf("cells: not a valid sheet (%v)\n", err)
		return nil
	}
	fmt.Printf("cells: %d\n", img.CellCount())
	return nil
}
