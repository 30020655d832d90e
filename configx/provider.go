package configx

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/clinia/bulksink/errorx"
	"github.com/clinia/bulksink/loggerx"
	"github.com/knadh/koanf"
	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/ory/jsonschema/v3"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/attribute"
)

const (
	Delimiter        = "."
	DefaultEnvPrefix = "BULKSINK_"
)

type tuple struct {
	Key   string
	Value interface{}
}

// Provider loads configuration from, in increasing priority: base values,
// config files, environment variables, flags, user providers and forced values.
// The merged result is validated against a JSON schema.
type Provider struct {
	*koanf.Koanf

	schema            *jsonschema.Schema
	files             []string
	flags             *pflag.FlagSet
	envPrefix         string
	baseValues        []tuple
	forcedValues      []tuple
	userProviders     []koanf.Provider
	skipValidation    bool
	disableEnvLoading bool
	logger            *loggerx.Logger
	onValidationError func(err error)
}

func New(ctx context.Context, schema []byte, modifiers ...OptionModifier) (*Provider, error) {
	p := &Provider{
		envPrefix:         DefaultEnvPrefix,
		onValidationError: func(error) {},
	}
	for _, m := range modifiers {
		m(p)
	}
	if p.logger == nil {
		p.logger = loggerx.New("configx")
	}

	s, err := compileSchema(ctx, schema)
	if err != nil {
		return nil, err
	}
	p.schema = s

	k, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	p.Koanf = k
	return p, nil
}

func (p *Provider) load(ctx context.Context) (*koanf.Koanf, error) {
	k := koanf.New(Delimiter)

	if err := loadTuples(k, p.baseValues); err != nil {
		return nil, err
	}

	for _, f := range p.files {
		parser, err := parserFor(f)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(f), parser); err != nil {
			return nil, errorx.InvalidArgumentErrorf("unable to load config file '%s'", f).WithOriginalError(err)
		}
		p.logger.Debug(ctx, "loaded config file", attribute.String("file", f))
	}

	if !p.disableEnvLoading {
		if err := k.Load(env.ProviderWithValue(p.envPrefix, Delimiter, p.envKeyValue), nil); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if p.flags != nil {
		if err := k.Load(posflag.Provider(p.flags, Delimiter, k), nil); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	for _, up := range p.userProviders {
		if err := k.Load(up, nil); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	if err := loadTuples(k, p.forcedValues); err != nil {
		return nil, err
	}

	if !p.skipValidation {
		if err := p.validate(k); err != nil {
			p.onValidationError(err)
			return nil, err
		}
	}

	return k, nil
}

func (p *Provider) validate(k *koanf.Koanf) error {
	raw, err := json.Marshal(k.Raw())
	if err != nil {
		return errors.WithStack(err)
	}

	if err := p.schema.Validate(bytes.NewReader(raw)); err != nil {
		return errorx.InvalidArgumentErrorf("configuration is invalid").WithOriginalError(err)
	}
	return nil
}

// envKeyValue maps BULKSINK_SINK__BACKOFF__TYPE to sink.backoff.type. Values
// that parse as JSON keep their type so numbers and booleans validate.
func (p *Provider) envKeyValue(key, value string) (string, interface{}) {
	key = strings.ToLower(strings.TrimPrefix(key, p.envPrefix))
	key = strings.ReplaceAll(key, "__", Delimiter)

	var v interface{}
	if err := json.Unmarshal([]byte(value), &v); err == nil {
		return key, v
	}
	return key, value
}

func loadTuples(k *koanf.Koanf, tuples []tuple) error {
	if len(tuples) == 0 {
		return nil
	}

	values := make(map[string]interface{}, len(tuples))
	for _, t := range tuples {
		values[t.Key] = t.Value
	}
	return errors.WithStack(k.Load(confmap.Provider(values, Delimiter), nil))
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return kjson.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	default:
		return nil, errorx.InvalidArgumentErrorf("unsupported config file format '%s'", path)
	}
}

// Unmarshal decodes the value under path into out using its json tags.
func (p *Provider) Unmarshal(path string, out interface{}) error {
	return errors.WithStack(p.UnmarshalWithConf(path, out, koanf.UnmarshalConf{Tag: "json"}))
}
