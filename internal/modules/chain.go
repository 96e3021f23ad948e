package modules

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/blogbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// Chain offers specifiers and IDs to handlers in registration order.
type Chain struct {
	handlers []Handler
	logger   *slog.Logger
}

// NewChain creates a chain. A nil logger uses slog.Default.
func NewChain(logger *slog.Logger, handlers ...Handler) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{handlers: handlers, logger: logger}
}

// Handlers returns the registered handlers in order.
func (c *Chain) Handlers() []Handler {
	return append([]Handler(nil), c.handlers...)
}

// Resolve returns the first claiming handler's resolution. The handler named
// skip is not consulted.
func (c *Chain) Resolve(ctx context.Context, spec string, importer ModuleID, skip string) (Resolution, error) {
	for _, h := range c.handlers {
		if err := ctx.Err(); err != nil {
			return Unhandled(), err
		}
		if skip != "" && h.Name() == skip {
			continue
		}
		res, err := h.TryResolve(ctx, spec, importer, c)
		if err != nil {
			return Unhandled(), err
		}
		if res.Handled() {
			c.logger.Debug("Resolved specifier",
				logfields.Specifier(spec),
				logfields.Importer(importer.String()),
				logfields.Handler(h.Name()),
				logfields.ModuleID(res.ID().String()))
			return res, nil
		}
	}
	return Unhandled(), nil
}

// MustResolve is Resolve with an unhandled specifier turned into an error.
func (c *Chain) MustResolve(ctx context.Context, spec string, importer ModuleID) (ModuleID, error) {
	res, err := c.Resolve(ctx, spec, importer, "")
	if err != nil {
		return "", err
	}
	if !res.Handled() {
		return "", errors.ResolveError("cannot resolve module").
			Fatal().
			WithContext("specifier", spec).
			WithContext("importer", importer.String()).
			Build()
	}
	return res.ID(), nil
}

// Load returns the module from the first handler that owns id.
func (c *Chain) Load(ctx context.Context, id ModuleID, lc LoadContext) (*Module, error) {
	for _, h := range c.handlers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mod, err := h.Load(ctx, id, lc)
		if err != nil {
			return nil, err
		}
		if mod != nil {
			if mod.ID == "" {
				mod.ID = id
			}
			return mod, nil
		}
	}
	return nil, errors.ResolveError("no handler can load module").
		Fatal().
		WithContext("module_id", id.String()).
		Build()
}
