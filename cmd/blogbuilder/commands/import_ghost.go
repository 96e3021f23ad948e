package commands

import (
	"fmt"
	"os"

	"git.home.luguber.info/inful/blogbuilder/internal/feed"
	"git.home.luguber.info/inful/blogbuilder/internal/ghost"
)

// ImportGhostCmd implements the 'import-ghost' command.
type ImportGhostCmd struct {
	File   string `arg:"" help:"Ghost export JSON file" type:"existingfile"`
	Drafts bool   `help:"Also import unpublished posts"`
}

func (i *ImportGhostCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	loc, err := feed.ParseZone(cfg.Ghost.Timezone)
	if err != nil {
		return err
	}

	im := ghost.NewImporter(ghost.Options{
		ConfigPath:    cfg.Ghost.ConfigPath,
		ContentDir:    cfg.Ghost.ContentDir,
		IncludeDrafts: cfg.Ghost.IncludeDrafts || i.Drafts,
		Location:      loc,
		Logger:        g.Logger,
	})
	result, err := im.ImportFile(i.File)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(os.Stdout, "Imported %d posts (%d skipped) into %s; settings written to %s\n",
		len(result.Written), result.Skipped, cfg.Ghost.ContentDir, cfg.Ghost.ConfigPath)
	return nil
}
