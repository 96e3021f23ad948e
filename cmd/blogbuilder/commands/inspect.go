package commands

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"git.home.luguber.info/inful/blogbuilder/internal/build"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/extract"
	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/modules"
)

// InspectCmd implements the 'inspect' command.
type InspectCmd struct {
	Specifier string `arg:"" help:"Module specifier, e.g. content:content/blog or markdown:content/about.md"`
	Code      bool   `help:"Print the generated module code instead of its data"`
}

func (i *InspectCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	return inspect(context.Background(), os.Stdout, modules.NewCollector(), build.NewChain(cfg, g.Logger), i.Specifier, i.Code)
}

func inspect(ctx context.Context, w io.Writer, lc modules.LoadContext, chain *modules.Chain, spec string, code bool) error {
	id, err := chain.MustResolve(ctx, spec, "")
	if err != nil {
		return err
	}
	mod, err := chain.Load(ctx, id, lc)
	if err != nil {
		return err
	}
	if code {
		_, err := io.WriteString(w, mod.Code)
		return err
	}

	var out any
	switch data := mod.Data.(type) {
	case *content.Manifest:
		out = data.Records()
	case extract.Document:
		out = map[string]any{"meta": data.Meta, "html": data.HTML}
	default:
		out = map[string]any{"id": mod.ID.String(), "imports": mod.Imports}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "encode inspect output").Build()
	}
	return nil
}

