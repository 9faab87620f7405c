package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fieldMap(fields []zap.Field) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f.Key] = f.String
	}
	return out
}

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  provider  ", Value: "  Gemini  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	assert.Equal(t, map[string]string{"provider": "Gemini"}, fieldMap(fields))
	assert.Empty(t, StringFields())
}

func TestFieldHelpers(t *testing.T) {
	tests := []struct {
		name   string
		fields []zap.Field
		want   map[string]string
	}{
		{
			name:   "common",
			fields: CommonFields(" gemini ", "model-v1"),
			want:   map[string]string{FieldProvider: "gemini", FieldModel: "model-v1"},
		},
		{
			name:   "common empty",
			fields: CommonFields("", ""),
			want:   map[string]string{},
		},
		{
			name:   "resource with id",
			fields: ResourceFields("projects", " p1 "),
			want:   map[string]string{FieldResource: "projects", FieldResourceID: "p1"},
		},
		{
			name:   "resource without id",
			fields: ResourceFields("interviews", ""),
			want:   map[string]string{FieldResource: "interviews"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fieldMap(tt.fields))
		})
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithFields(zap.New(core), zap.String("foo", "bar")).Info("test log")
	WithCommonFields(zap.New(core), "gemini", "model-x").Info("ai log")

	entries := observed.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "bar", entries[0].ContextMap()["foo"])
	assert.Equal(t, "gemini", entries[1].ContextMap()[FieldProvider])
	assert.Equal(t, "model-x", entries[1].ContextMap()[FieldModel])

	for _, l := range []*zap.Logger{WithFields(nil, zap.String("baz", "qux")), WithCommonFields(nil, "gemini", "m")} {
		require.NotNil(t, l)
		l.Info("must not panic")
	}
}
