package mocktable

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"meridian-hq/meridian/pkg/exchange"
	"meridian-hq/meridian/pkg/jsonval"
)

// maxLineBytes bounds a single exchange log line.
const maxLineBytes = 1 << 20

// Config configures the compiler's output environment.
type Config struct {
	// Name is the environment name.
	Name string

	// Port and Hostname are the serving address written into the
	// environment.
	Port     int
	Hostname string
}

// Stats summarizes one compilation run.
type Stats struct {
	// Recordings is the number of well-formed log records read.
	Recordings int

	// Malformed is the number of skipped unparseable lines.
	Malformed int

	// Routes is the number of compiled route definitions.
	Routes int
}

// Compiler turns exchange logs into mock environment documents.
type Compiler struct {
	cfg    Config
	ids    IDGenerator
	logger *slog.Logger
}

// NewCompiler creates a compiler. A nil ids generator uses random
// UUIDs.
func NewCompiler(cfg Config, ids IDGenerator, logger *slog.Logger) *Compiler {
	if cfg.Name == "" {
		cfg.Name = "Recorded API Mocks"
	}
	if cfg.Port == 0 {
		cfg.Port = 3000
	}
	if cfg.Hostname == "" {
		cfg.Hostname = "0.0.0.0"
	}
	if ids == nil {
		ids = UUIDGenerator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Compiler{
		cfg:    cfg,
		ids:    ids,
		logger: logger.With("component", "mocktable"),
	}
}

// routeGroup accumulates the recordings of one (method, template)
// pair. The first recording is canonical.
type routeGroup struct {
	method   string
	template string
	first    *exchange.Exchange
	count    int
}

// Compile reads a JSONL exchange log and builds the environment
// document. Unparseable lines are counted and skipped; they never
// abort the run.
func (c *Compiler) Compile(r io.Reader) (*Environment, *Stats, error) {
	stats := &Stats{}

	var order []string
	groups := map[string]*routeGroup{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var ex exchange.Exchange
		if err := json.Unmarshal([]byte(line), &ex); err != nil {
			stats.Malformed++
			c.logger.Warn("skipping malformed log line",
				"line", lineNo,
				"error", err,
			)
			continue
		}
		stats.Recordings++

		method := strings.ToLower(ex.Request.Method)
		template := EndpointTemplate(ex.Request.Path)
		key := method + " " + template

		group, ok := groups[key]
		if !ok {
			group = &routeGroup{method: method, template: template, first: &ex}
			groups[key] = group
			order = append(order, key)
		}
		group.count++
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read exchange log: %w", err)
	}

	env := newEnvironment(c.ids.NewID(), c.cfg.Name, c.cfg.Port, c.cfg.Hostname)
	for _, key := range order {
		env.Routes = append(env.Routes, c.buildRoute(groups[key]))
	}
	stats.Routes = len(env.Routes)

	c.logger.Info("compiled mock table",
		"recordings", stats.Recordings,
		"malformed", stats.Malformed,
		"routes", stats.Routes,
	)
	return env, stats, nil
}

// buildRoute compiles one group into a route definition.
func (c *Compiler) buildRoute(group *routeGroup) Route {
	return Route{
		UUID:          c.ids.NewID(),
		Documentation: fmt.Sprintf("Recorded: %s %s", strings.ToUpper(group.method), group.template),
		Method:        group.method,
		Endpoint:      strings.TrimPrefix(group.template, "/"),
		Responses: []RouteResponse{{
			UUID:          c.ids.NewID(),
			Body:          renderBody(group.first.Response.Body),
			Latency:       0,
			StatusCode:    group.first.Response.StatusCode,
			Label:         fmt.Sprintf("Recorded response (%d similar)", group.count),
			Headers:       responseHeaders(group.first.Response.Headers),
			BodyType:      "INLINE",
			Rules:         []Rule{},
			RulesOperator: "OR",
			Default:       true,
		}},
		Enabled: true,
	}
}

// renderBody serializes a recorded body for inline template use.
// Structured bodies are pretty-printed; raw text passes through
// unchanged.
func renderBody(body jsonval.Value) string {
	switch body.Kind {
	case jsonval.KindObject, jsonval.KindArray:
		data, err := body.EncodeIndent()
		if err != nil {
			return ""
		}
		return string(data)
	case jsonval.KindString:
		return body.Str
	case jsonval.KindNull:
		return ""
	default:
		data, err := body.Encode()
		if err != nil {
			return ""
		}
		return string(data)
	}
}

// responseHeaders filters connection-scoped headers out of a recorded
// header map and sorts the rest by name for stable output.
func responseHeaders(headers map[string]string) []Header {
	keys := make([]string, 0, len(headers))
	for key := range headers {
		if exchange.IsConnectionScoped(key) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]Header, 0, len(keys))
	for _, key := range keys {
		out = append(out, Header{Key: key, Value: headers[key]})
	}
	return out
}
