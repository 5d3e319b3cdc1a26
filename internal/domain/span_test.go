package domain

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProfile(t *testing.T) {
	t.Run("starting a span closes the previous one", func(t *testing.T) {
		profile, endProfile := NewProfile()
		first, _ := profile.StartNewSpan("stage factor")
		require.Nil(t, first.ElapsedMs)

		second, endSecond := profile.StartNewSpan("compute cross-sections")
		require.NotNil(t, first.ElapsedMs)
		require.Nil(t, second.ElapsedMs)

		endSecond()
		elapsed := *second.ElapsedMs
		endProfile()
		require.Equal(t, elapsed, *second.ElapsedMs)
		require.NotNil(t, profile.TotalMs)
		require.Equal(t, []string{"stage factor", "compute cross-sections"}, profile.SpanNames())
	})

	t.Run("ending the profile closes the open span", func(t *testing.T) {
		profile, endProfile := NewProfile()
		span, _ := profile.StartNewSpan("assemble")
		endProfile()
		require.NotNil(t, span.ElapsedMs)

		total := *profile.TotalMs
		endProfile()
		require.Equal(t, total, *profile.TotalMs)
	})

	t.Run("serializes spans and total", func(t *testing.T) {
		profile, endProfile := NewProfile()
		profile.StartNewSpan("stage factor")
		endProfile()

		b, err := json.Marshal(profile)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(b, &decoded))
		require.Contains(t, decoded, "totalMs")
		spans := decoded["spans"].([]any)
		require.Len(t, spans, 1)
		require.Equal(t, "stage factor", spans[0].(map[string]any)["name"])
	})
}

func TestGetProfile(t *testing.T) {
	t.Run("context profile is owned by the caller", func(t *testing.T) {
		profile, _ := NewProfile()
		ctx := NewCtxWithProfile(context.Background(), profile)

		got, end := GetProfile(ctx)
		require.Same(t, profile, got)
		end()
		require.Nil(t, profile.TotalMs)
	})

	t.Run("missing profile yields a detached one", func(t *testing.T) {
		got, end := GetProfile(context.Background())
		require.NotNil(t, got)
		got.StartNewSpan("stage factor")
		end()
		require.NotNil(t, got.TotalMs)
	})
}
