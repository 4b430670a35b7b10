package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		enabled zapcore.Level
		wantErr bool
	}{
		{name: "production json logger", level: "info", format: "json", enabled: zapcore.InfoLevel},
		{name: "development console logger", level: "debug", format: "console", enabled: zapcore.DebugLevel},
		{name: "text is an alias for console", level: "warn", format: "text", enabled: zapcore.WarnLevel},
		{name: "upper case level", level: "ERROR", format: "json", enabled: zapcore.ErrorLevel},
		{name: "defaults when not set", enabled: zapcore.InfoLevel},
		{name: "invalid log level", level: "invalid", format: "json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.level, tt.format)
			if tt.wantErr {
				assert.Nil(t, logger)
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid log level")
				return
			}

			require.NoError(t, err)
			require.NotNil(t, logger)
			defer func() { _ = logger.Sync() }()

			assert.True(t, logger.Core().Enabled(tt.enabled))
			if tt.enabled > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.enabled-1))
			}
		})
	}
}
