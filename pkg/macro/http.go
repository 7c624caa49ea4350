package macro

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/loomrun/loom/pkg/graph"
	"github.com/loomrun/loom/pkg/port"
	"github.com/loomrun/loom/pkg/registry"
)

type httpConfig struct {
	Method  *InputValueConfig `mapstructure:"method"`
	URL     *InputValueConfig `mapstructure:"url"`
	Headers *InputValueConfig `mapstructure:"headers"`
	Params  *InputValueConfig `mapstructure:"params"`
	Data    *InputValueConfig `mapstructure:"data"`
}

// httpClient is package-level so tests can swap in a fake transport
// without touching the macro's constructor signature.
var httpClient = http.DefaultClient

// NewHTTP builds the Http macro. It is the one place in the engine that
// performs an actual network call; everything else in pkg/macro is pure.
// Grounded on nodes.py's Http component, ported from urllib to net/http:
// url defaults to queue mode, method/headers/params/data default to a
// static value unless their macroData entry requests dynamic (sticky)
// wiring. See DESIGN.md for why this macro stays on net/http rather than
// a third-party HTTP client.
func NewHTTP(args registry.LeafArgs) (graph.Node, error) {
	var cfg httpConfig
	if err := decodeMacroData(args.MacroData, &cfg); err != nil {
		return nil, fmt.Errorf("macro Http %s: %w", args.ID, err)
	}

	urlIn := dynamicOrStaticDefaultQueue(args.ID+".url", cfg.URL)
	methodIn := dynamicOrSticky(args.ID+".method", cfg.Method, "GET")
	headersIn := dynamicOrSticky(args.ID+".headers", cfg.Headers, map[string]any{})
	paramsIn := dynamicOrSticky(args.ID+".params", cfg.Params, map[string]any{})
	dataIn := dynamicOrSticky(args.ID+".data", cfg.Data, map[string]any{})
	out := port.NewOutput(args.ID+".data", "response data", port.AnyType, port.ModeRef)

	return graph.NewComponent(args.ID, "Http", args.DisplayName,
		[]string{"url", "method", "headers", "params", "data"},
		map[string]*port.Input{"url": urlIn, "method": methodIn, "headers": headersIn, "params": paramsIn, "data": dataIn},
		map[string]*port.Output{"data": out},
		func(ctx context.Context, c *graph.Component, in map[string]port.Value) (graph.ProcessOutcome, error) {
			result, err := doHTTPRequest(ctx, in)
			if err != nil {
				return graph.None, err
			}
			return graph.Emit(map[string]port.Value{"data": result}), nil
		},
	), nil
}

// dynamicOrStaticDefaultQueue is url's variant of dynamicOrStatic: a
// dynamic config (or none) leaves the pin in the default ModeQueue, since
// url is the one input nodes.py wires to InputMode.QUEUE rather than
// sticky when dynamic.
func dynamicOrStaticDefaultQueue(id string, cfg *InputValueConfig) *port.Input {
	if cfg != nil && cfg.Type == ValueStatic {
		return port.NewInput(id, port.WithMode(port.ModeStatic), port.WithInitialValue(cfg.Value))
	}
	return port.NewInput(id)
}

func doHTTPRequest(ctx context.Context, in map[string]port.Value) (port.Value, error) {
	rawURL, _ := in["url"].(string)
	method, _ := in["method"].(string)
	if method == "" {
		method = http.MethodGet
	}
	headers, _ := in["headers"].(map[string]any)
	params, _ := in["params"].(map[string]any)
	data, _ := in["data"].(map[string]any)

	if len(params) > 0 {
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("http: invalid url %q: %w", rawURL, err)
		}
		q := parsed.Query()
		for k, v := range params {
			q.Set(k, fmt.Sprintf("%v", v))
		}
		parsed.RawQuery = q.Encode()
		rawURL = parsed.String()
	}

	var body io.Reader
	var bodyLen int
	if len(data) > 0 && method != http.MethodGet {
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("http: encoding body: %w", err)
		}
		body = bytes.NewReader(encoded)
		bodyLen = len(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("http: building request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, fmt.Sprintf("%v", v))
	}
	if bodyLen > 0 {
		req.Header.Set("Content-Type", "application/json")
		req.ContentLength = int64(bodyLen)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("http: reading response: %w", err)
	}

	return decodeResponseBody(resp.Header.Get("Content-Type"), raw), nil
}

// decodeResponseBody mirrors nodes.py's JSON handling: text-like content
// types are converted to a string as-is (the charset parameter is not
// consulted), and a json content type is further unmarshaled when it parses
// cleanly; anything else is returned as raw bytes.
func decodeResponseBody(contentType string, raw []byte) port.Value {
	if contentType == "" {
		return raw
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	isText := strings.Contains(mediaType, "text/") ||
		strings.Contains(mediaType, "json") ||
		strings.Contains(mediaType, "xml") ||
		mediaType == "application/javascript"
	if !isText {
		return raw
	}

	text := string(raw)
	if strings.Contains(mediaType, "json") {
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err == nil {
			return parsed
		}
	}
	return text
}
