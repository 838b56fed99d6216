package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyDeviceID    = "device_id"
	KeyTask        = "task"
	KeyTaskID      = "task_id"
	KeySessionID   = "session_id"
	KeyResolution  = "resolution"
	KeyRefreshRate = "refresh_rate"
	KeyResult      = "result"
	KeyPath        = "path"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func DeviceID(id string) slog.Attr   { return slog.String(KeyDeviceID, id) }
func Task(name string) slog.Attr     { return slog.String(KeyTask, name) }
func TaskID(id string) slog.Attr     { return slog.String(KeyTaskID, id) }
func SessionID(id string) slog.Attr  { return slog.String(KeySessionID, id) }
func Resolution(r string) slog.Attr  { return slog.String(KeyResolution, r) }
func RefreshRate(r string) slog.Attr { return slog.String(KeyRefreshRate, r) }
func Result(r string) slog.Attr      { return slog.String(KeyResult, r) }
func Path(p string) slog.Attr        { return slog.String(KeyPath, p) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
