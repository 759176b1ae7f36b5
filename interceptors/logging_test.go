package interceptors

import (
	"context"
	"testing"

	"github.com/IronManRust/culvers-ice-cream-ical/contextx"
	"github.com/IronManRust/culvers-ice-cream-ical/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestLoggingUnary(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		severity string
		code     string
	}{
		{name: "ok", severity: "INFO", code: "OK"},
		{name: "not found", err: status.Error(codes.NotFound, "location 9 not found"), severity: "WARN", code: "NotFound"},
		{name: "unavailable", err: status.Error(codes.Unavailable, "upstream down"), severity: "ERROR", code: "Unavailable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log := logger.NewTestLogger()
			ic := LoggingUnary(log)
			ctx := contextx.WithRequestID(t.Context(), "req-1")
			info := &grpc.UnaryServerInfo{FullMethod: "/fotd.FlavorService/GetLocation"}

			_, err := ic(ctx, nil, info, func(context.Context, any) (any, error) { return nil, tc.err })
			assert.Equal(t, tc.err, err)

			logs := log.Logs()
			require.Len(t, logs, 1)
			assert.Equal(t, tc.severity, logs[0].Severity)
			assert.Contains(t, logs[0].Message, info.FullMethod)
			assert.Equal(t, tc.code, logs[0].Metadata["code"])
			assert.Equal(t, "req-1", logs[0].Metadata["request_id"])
		})
	}
}

func TestLoggingUnary_RecordsGroup(t *testing.T) {
	log := logger.NewTestLogger()
	ctx := contextx.WithGroup(t.Context(), "calendar")
	_, err := LoggingUnary(log)(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/x/Y"}, func(context.Context, any) (any, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "calendar", log.Logs()[0].Metadata["group"])
}
