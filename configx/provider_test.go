package configx

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/clinia/bulksink/errorx"
	loggerxtest "github.com/clinia/bulksink/loggerx/test"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = []byte(`{
  "$id": "https://github.com/clinia/bulksink/configx/test.schema.json",
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string"},
    "sink": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "max_actions": {"type": "integer", "minimum": 1},
        "flush": {"type": "boolean"},
        "timeout": {"type": "string"}
      }
    }
  }
}`)

type testConfig struct {
	Name string `json:"name"`
	Sink struct {
		MaxActions int           `json:"max_actions"`
		Flush      bool          `json:"flush"`
		Timeout    time.Duration `json:"timeout"`
	} `json:"sink"`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestProvider(t *testing.T) {
	ctx := context.Background()
	l := loggerxtest.NewTestLogger(t)

	t.Run("should merge sources by priority", func(t *testing.T) {
		yamlFile := writeFile(t, "config.yaml", "name: from-yaml\nsink:\n  max_actions: 10\n  timeout: 5s\n")
		t.Setenv("BULKSINK_SINK__FLUSH", "true")

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.Int("sink.max_actions", 1, "")
		require.NoError(t, flags.Parse([]string{"--sink.max_actions=20"}))

		p, err := New(ctx, testSchema,
			WithLogger(l),
			WithBaseValues(map[string]interface{}{"name": "default", "sink.max_actions": 1000}),
			WithConfigFiles(yamlFile),
			WithFlags(flags),
		)
		require.NoError(t, err)

		var cfg testConfig
		require.NoError(t, p.Unmarshal("", &cfg))
		assert.Equal(t, "from-yaml", cfg.Name)
		assert.Equal(t, 20, cfg.Sink.MaxActions)
		assert.True(t, cfg.Sink.Flush)
		assert.Equal(t, 5*time.Second, cfg.Sink.Timeout)
	})

	t.Run("should load json files and forced values", func(t *testing.T) {
		jsonFile := writeFile(t, "config.json", `{"name": "from-json", "sink": {"max_actions": 3}}`)

		p, err := New(ctx, testSchema, WithLogger(l), DisableEnvLoading(), WithConfigFiles(jsonFile), WithValue("name", "forced"))
		require.NoError(t, err)
		assert.Equal(t, "forced", p.String("name"))
		assert.Equal(t, 3, p.Int("sink.max_actions"))
	})

	t.Run("should reject values the schema does not allow", func(t *testing.T) {
		buf := &bytes.Buffer{}
		_, err := New(ctx, testSchema,
			WithLogger(l),
			DisableEnvLoading(),
			WithValues(map[string]interface{}{"sink.max_actions": 0}),
			WithStandardValidationReporter(buf),
		)
		require.Error(t, err)
		assert.True(t, errorx.IsInvalidArgumentError(err))
		assert.Contains(t, buf.String(), "/sink/max_actions")
	})

	t.Run("should skip validation on demand", func(t *testing.T) {
		p, err := New(ctx, testSchema, WithLogger(l), DisableEnvLoading(), SkipValidation(), WithValue("unknown", true))
		require.NoError(t, err)
		assert.True(t, p.Bool("unknown"))
	})

	t.Run("should reject unsupported files", func(t *testing.T) {
		_, err := New(ctx, testSchema, WithLogger(l), WithConfigFiles(writeFile(t, "config.toml", "")))
		assert.True(t, errorx.IsInvalidArgumentError(err))
	})
}
