package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/bcomnes/releasekit/pkg/siteconfig"
)

func (a *app) siteConfigCmd() *cli.Command {
	return &cli.Command{
		Name:  "site-config",
		Usage: "Generate a site configuration from the template library",
		Description: `Clones the template of the given site type and writes it to
<output-dir>/<id>.json with the site identity filled in. An existing output
file is never overwritten.

Use --list to print the available site types.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "templates",
				Aliases: []string{"t"},
				Usage:   "template library (JSON with a defaultTemplates object)",
				Sources: cli.EnvVars("RELEASEKIT_SITE_TEMPLATES"),
			},
			&cli.StringFlag{
				Name:  "id",
				Usage: "site identifier; also the output file name",
			},
			&cli.StringFlag{
				Name:  "url",
				Usage: "primary site URL",
			},
			&cli.StringFlag{
				Name:  "type",
				Usage: "site type, one of the template library keys",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "display name (default: the site id)",
			},
			&cli.BoolFlag{
				Name:  "title-name",
				Usage: "derive the default display name by title-casing the site id",
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Usage:   "existing directory the configuration is written to",
			},
			&cli.BoolFlag{
				Name:  "list",
				Usage: "list available site types and exit",
			},
		},
		Action: a.siteConfig,
	}
}

func (a *app) siteConfig(_ context.Context, cmd *cli.Command) error {
	templates := a.cfg.SiteConfig.Templates
	if cmd.IsSet("templates") {
		templates = cmd.String("templates")
	}
	out := cmd.Root().Writer

	if cmd.Bool("list") {
		types, err := siteconfig.Types(templates)
		if err != nil {
			return err
		}
		for _, t := range types {
			fmt.Fprintln(out, t)
		}
		return nil
	}

	outputDir := a.cfg.SiteConfig.OutputDir
	if cmd.IsSet("output-dir") {
		outputDir = cmd.String("output-dir")
	}
	res, err := siteconfig.Generate(siteconfig.Options{
		TemplatesPath: templates,
		SiteID:        cmd.String("id"),
		URL:           cmd.String("url"),
		SiteType:      cmd.String("type"),
		Name:          cmd.String("name"),
		TitleName:     cmd.Bool("title-name"),
		OutputDir:     outputDir,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "SITE_CONFIG=%s\n", res.Path)
	return err
}
