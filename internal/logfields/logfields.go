package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyModuleID   = "module_id"
	KeySpecifier  = "specifier"
	KeyImporter   = "importer"
	KeyHandler    = "handler"
	KeyItems      = "items"
	KeyAsset      = "asset"
	KeyName       = "name"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func ModuleID(id string) slog.Attr     { return slog.String(KeyModuleID, id) }
func Specifier(s string) slog.Attr     { return slog.String(KeySpecifier, s) }
func Importer(s string) slog.Attr      { return slog.String(KeyImporter, s) }
func Handler(name string) slog.Attr    { return slog.String(KeyHandler, name) }
func Items(n int) slog.Attr            { return slog.Int(KeyItems, n) }
func Asset(fileName string) slog.Attr  { return slog.String(KeyAsset, fileName) }
func Name(n string) slog.Attr          { return slog.String(KeyName, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
