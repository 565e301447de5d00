package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestL_SupportsChainedCalls(t *testing.T) {
	// Level methods must be callable directly on the accessor's result.
	L().Debug().Str(FieldConnectionID, "c1").Msg("chained call")
	L().Info().Msg("chained call")
}

func TestCtx_FallsBackToGlobal(t *testing.T) {
	require.Equal(t, L(), Ctx(context.Background()))
}

func TestCtx_ReturnsStoredLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ctx := WithLogger(context.Background(), logger)

	Ctx(ctx).Info().Str(FieldMerchantID, "merch-1").Msg("from context")

	out := buf.String()
	require.Contains(t, out, "from context")
	require.Contains(t, out, "merch-1")
}

func TestNew_LevelFiltering(t *testing.T) {
	logger := New(Config{Level: "warn", ServiceName: "chat-service"})
	require.Equal(t, zerolog.WarnLevel, logger.GetLevel())
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"bogus":   zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}
	for in, want := range cases {
		require.Equal(t, want, parseLevel(in), "level=%q", in)
	}
}
