// Package config provides YAML configuration for the hxtag CLI.
//
// Components can be declared in the file instead of in Go. Their markup is
// an html/template; the output is resolved like any other render output, so
// declarative components may nest other components.
//
// Example configuration:
//
//	addr: :8080
//	dev: true
//	pages_dir: ./pages
//
//	fragments:
//	  key: ${HXTAG_FRAGMENT_KEY:-dev-only-key}
//
//	components:
//	  - tag: user-card
//	    props:
//	      - name: name
//	        type: string
//	        required: true
//	      - name: role
//	        type: oneof
//	        values: [admin, member]
//	        default: member
//	    classes:
//	      root: card
//	    template: |
//	      <div class="{{ class "root" }}">{{ .Props.name }} ({{ .Props.role }})</div>
package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pthm/hxtag"
)

// Defaults applied by Parse.
const (
	DefaultAddr            = ":8080"
	DefaultMetricsPath     = "/metrics"
	DefaultShutdownTimeout = 10 * time.Second
)

// Config is the root configuration structure.
//
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Addr is the listen address. Defaults to ":8080".
	Addr string `yaml:"addr"`

	// Dev enables development diagnostics in error responses.
	Dev bool `yaml:"dev"`

	// MaxDepth bounds component nesting. Zero uses the library default.
	MaxDepth int `yaml:"max_depth"`

	// Concurrency bounds parallel sibling renders. Zero means unbounded.
	Concurrency int `yaml:"concurrency"`

	// PagesDir holds *.html pages served by path: pages/about.html is
	// served at /about and pages/index.html at /.
	PagesDir string `yaml:"pages_dir"`

	// Fragments enables lazily loaded component fragments.
	Fragments FragmentsConfig `yaml:"fragments"`

	// Metrics exposes Prometheus metrics.
	Metrics MetricsConfig `yaml:"metrics"`

	// ShutdownTimeout bounds graceful shutdown. Defaults to 10s.
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`

	// Components are declarative component definitions.
	Components []ComponentConfig `yaml:"components"`
}

// FragmentsConfig configures the fragment endpoint.
type FragmentsConfig struct {
	// Key signs fragment tokens. Fragments are disabled when empty.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	Key string `yaml:"key"`

	// Prefix is the URL prefix. Defaults to "/_c/".
	Prefix string `yaml:"prefix"`
}

// MetricsConfig configures the metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ComponentConfig declares one component.
type ComponentConfig struct {
	Tag      string            `yaml:"tag"`
	Props    []PropConfig      `yaml:"props"`
	Classes  map[string]string `yaml:"classes"`
	Template string            `yaml:"template"`
	Routes   []RouteConfig     `yaml:"routes"`
}

// PropConfig declares one prop. Type is one of string, number, boolean,
// array, object or oneof.
type PropConfig struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Default  any      `yaml:"default"`
	Required bool     `yaml:"required"`
	Values   []string `yaml:"values"`
}

// RouteConfig declares a route whose response is a template. The template
// sees the bound path parameters as .Params.
type RouteConfig struct {
	Key      string `yaml:"key"`
	Method   string `yaml:"method"`
	Path     string `yaml:"path"`
	Template string `yaml:"template"`
	Trigger  string `yaml:"trigger"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		sub := envVarPattern.FindStringSubmatch(match)
		varName := sub[1]
		hasDefault := sub[2] != ""

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return sub[3]
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data, applies defaults, expands
// environment variables in fragments.key and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}

	key, err := expandEnvVars(cfg.Fragments.Key)
	if err != nil {
		return nil, fmt.Errorf("fragments.key: %w", err)
	}
	cfg.Fragments.Key = key

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration without building anything.
func (c *Config) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth cannot be negative, got %d", c.MaxDepth)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency cannot be negative, got %d", c.Concurrency)
	}
	if c.ShutdownTimeout.Duration() < 0 {
		return fmt.Errorf("shutdown_timeout cannot be negative, got %s", c.ShutdownTimeout.Duration())
	}
	if c.Fragments.Prefix != "" && !strings.HasPrefix(c.Fragments.Prefix, "/") {
		return fmt.Errorf("fragments.prefix must start with /, got %q", c.Fragments.Prefix)
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
	}

	seen := make(map[string]struct{}, len(c.Components))
	for i := range c.Components {
		cc := &c.Components[i]
		tag := hxtag.NormalizeTag(cc.Tag)
		if tag == "" {
			return fmt.Errorf("components[%d]: tag is required", i)
		}
		if _, dup := seen[tag]; dup {
			return fmt.Errorf("components[%d] (%s): duplicate tag", i, tag)
		}
		seen[tag] = struct{}{}

		if _, err := cc.build(); err != nil {
			return fmt.Errorf("components[%d] (%s): %w", i, tag, err)
		}
	}
	return nil
}

// BuildComponents converts declared components into registrable
// definitions, in file order.
func BuildComponents(cfg *Config) ([]hxtag.Component, error) {
	components := make([]hxtag.Component, 0, len(cfg.Components))
	for i, cc := range cfg.Components {
		comp, err := cc.build()
		if err != nil {
			return nil, fmt.Errorf("components[%d] (%s): %w", i, cc.Tag, err)
		}
		components = append(components, comp)
	}
	return components, nil
}

// Options converts the resolver settings into core options. Logger,
// metrics and tracer are left to the caller.
func (c *Config) Options() []hxtag.Option {
	opts := []hxtag.Option{hxtag.WithDev(c.Dev)}
	if c.MaxDepth > 0 {
		opts = append(opts, hxtag.WithMaxDepth(c.MaxDepth))
	}
	if c.Concurrency > 0 {
		opts = append(opts, hxtag.WithConcurrency(c.Concurrency))
	}
	if c.Fragments.Key != "" {
		opts = append(opts, hxtag.WithFragments([]byte(c.Fragments.Key), c.Fragments.Prefix))
	}
	return opts
}

func (cc ComponentConfig) build() (hxtag.Component, error) {
	if !hxtag.ValidTag(hxtag.NormalizeTag(cc.Tag)) {
		return hxtag.Component{}, fmt.Errorf("invalid tag %q", cc.Tag)
	}
	if strings.TrimSpace(cc.Template) == "" {
		return hxtag.Component{}, errors.New("template is required")
	}

	var schema hxtag.Schema
	if cc.Props != nil {
		schema = make(hxtag.Schema, 0, len(cc.Props))
		for j, pc := range cc.Props {
			prop, err := pc.build()
			if err != nil {
				return hxtag.Component{}, fmt.Errorf("props[%d] (%s): %w", j, pc.Name, err)
			}
			schema = append(schema, hxtag.Field{Name: pc.Name, Prop: prop})
		}
		if err := schema.Validate(); err != nil {
			return hxtag.Component{}, err
		}
	}

	tmpl, err := parseTemplate(cc.Tag, cc.Template, cc.Classes)
	if err != nil {
		return hxtag.Component{}, fmt.Errorf("invalid template: %w", err)
	}

	routes := make([]hxtag.Route, 0, len(cc.Routes))
	for j, rc := range cc.Routes {
		route, err := rc.build(cc.Tag, cc.Classes)
		if err != nil {
			return hxtag.Component{}, fmt.Errorf("routes[%d] (%s %s): %w", j, rc.Method, rc.Path, err)
		}
		routes = append(routes, route)
	}

	return hxtag.Component{
		Tag:     cc.Tag,
		Props:   schema,
		Render:  templateRender(tmpl),
		Routes:  routes,
		Classes: cc.Classes,
	}, nil
}

func (pc PropConfig) build() (hxtag.Prop, error) {
	if pc.Name == "" {
		return hxtag.Prop{}, errors.New("name is required")
	}
	if pc.Required && pc.Default != nil {
		return hxtag.Prop{}, errors.New("a required prop cannot have a default")
	}

	var prop hxtag.Prop
	switch strings.ToLower(pc.Type) {
	case "", "string":
		def, err := defaultAs[string](pc.Default, "")
		if err != nil {
			return hxtag.Prop{}, err
		}
		prop = hxtag.StringProp(def)
	case "number":
		def, err := numberDefault(pc.Default)
		if err != nil {
			return hxtag.Prop{}, err
		}
		prop = hxtag.NumberProp(def)
	case "boolean", "bool":
		def, err := defaultAs[bool](pc.Default, false)
		if err != nil {
			return hxtag.Prop{}, err
		}
		prop = hxtag.BoolProp(def)
	case "array":
		def, err := defaultAs[[]any](pc.Default, []any{})
		if err != nil {
			return hxtag.Prop{}, err
		}
		prop = hxtag.ArrayProp(def)
	case "object":
		def, err := defaultAs[map[string]any](pc.Default, map[string]any{})
		if err != nil {
			return hxtag.Prop{}, err
		}
		prop = hxtag.ObjectProp(def)
	case "oneof":
		if len(pc.Values) == 0 {
			return hxtag.Prop{}, errors.New("type oneof requires values")
		}
		def, err := defaultAs[string](pc.Default, pc.Values[0])
		if err != nil {
			return hxtag.Prop{}, err
		}
		prop = hxtag.OneOf(pc.Values, def)
	default:
		return hxtag.Prop{}, fmt.Errorf("unknown prop type %q", pc.Type)
	}

	if pc.Required {
		prop = prop.Required()
	}
	return prop, nil
}

func defaultAs[T any](v any, fallback T) (T, error) {
	if v == nil {
		return fallback, nil
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("default %v has type %T, want %T", v, v, zero)
	}
	return t, nil
}

func numberDefault(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return float64(n), nil
	case float64:
		return n, nil
	}
	return 0, fmt.Errorf("default %v has type %T, want a number", v, v)
}

func (rc RouteConfig) build(tag string, classes map[string]string) (hxtag.Route, error) {
	method := strings.ToUpper(rc.Method)
	if method == "" {
		method = http.MethodGet
	}
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return hxtag.Route{}, fmt.Errorf("unsupported method %q", rc.Method)
	}
	if !strings.HasPrefix(rc.Path, "/") {
		return hxtag.Route{}, fmt.Errorf("path must start with /, got %q", rc.Path)
	}

	tmpl, err := parseTemplate(tag+" "+method+" "+rc.Path, rc.Template, classes)
	if err != nil {
		return hxtag.Route{}, fmt.Errorf("invalid template: %w", err)
	}

	trigger := rc.Trigger
	return hxtag.Route{
		Key:     rc.Key,
		Method:  method,
		Pattern: rc.Path,
		Handler: func(r *http.Request, p hxtag.Params) hxtag.Result {
			res := hxtag.NoContent()
			if tmpl != nil {
				var sb strings.Builder
				if err := tmpl.Execute(&sb, routeData{Params: p}); err != nil {
					return hxtag.Err(err)
				}
				res = hxtag.HTML(sb.String())
			}
			if trigger != "" {
				res = res.Trigger(trigger)
			}
			return res
		},
	}, nil
}
