package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyClass      = "class"
	KeyParent     = "parent"
	KeyNamespace  = "namespace"
	KeyReference  = "reference"
	KeyMember     = "member"
	KeyContext    = "context_class"
	KeyPage       = "page"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Class(name string) slog.Attr     { return slog.String(KeyClass, name) }
func Parent(name string) slog.Attr    { return slog.String(KeyParent, name) }
func Namespace(ns string) slog.Attr   { return slog.String(KeyNamespace, ns) }
func Reference(r string) slog.Attr    { return slog.String(KeyReference, r) }
func Member(m string) slog.Attr       { return slog.String(KeyMember, m) }
func ContextClass(c string) slog.Attr { return slog.String(KeyContext, c) }
func Page(p string) slog.Attr         { return slog.String(KeyPage, p) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
