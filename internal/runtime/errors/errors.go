package errors

import sterrors "errors"

var (
	ErrConnectionRequired = sterrors.New("rxspy: connection is required")
	ErrLoggerRequired     = sterrors.New("rxspy: logger is required")
	ErrConfigRequired     = sterrors.New("rxspy: config is required")
	ErrSessionClosed      = sterrors.New("rxspy: session is closed")
	ErrPluginKindUnknown  = sterrors.New("rxspy: unknown plugin kind")
	ErrPluginIDRequired   = sterrors.New("rxspy: plugin id is required")
)
