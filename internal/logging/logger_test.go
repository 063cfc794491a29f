// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedact(t *testing.T) {
	tests := []struct {
		name string
		in   []interface{}
		want []interface{}
	}{
		{"empty", nil, nil},
		{"plain", []interface{}{"year", 2001}, []interface{}{"year", 2001}},
		{"api key", []interface{}{"api_key", "abc", "year", 2001}, []interface{}{"api_key", "[REDACTED]", "year", 2001}},
		{"mixed case", []interface{}{"NCBI-ApiKey", "abc"}, []interface{}{"NCBI-ApiKey", "[REDACTED]"}},
		{"dangling key", []interface{}{"token"}, []interface{}{"token"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, redact(tt.in))
		})
	}
}

func TestRedact_DoesNotMutateInput(t *testing.T) {
	in := []interface{}{"secret", "s3cr3t"}
	redact(in)
	assert.Equal(t, "s3cr3t", in[1])
}

func TestLoggerWritesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("stage", "fetch").Info("fetched", "year", 2001, "api_key", "k")

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "fetch", fields["stage"])
		assert.Equal(t, int64(2001), fields["year"])
		assert.Equal(t, "[REDACTED]", fields["api_key"])
	}
}

func TestNew(t *testing.T) {
	for _, mode := range []string{"dev", "prod"} {
		l, err := New(mode)
		assert.NoError(t, err, mode)
		assert.NotNil(t, l)
	}
}
