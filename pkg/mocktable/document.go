package mocktable

// Environment is a Mockoon environment document. Field names and the
// lastMigration value track the import format Mockoon 1.x desktop
// understands.
type Environment struct {
	UUID              string     `json:"uuid"`
	LastMigration     int        `json:"lastMigration"`
	Name              string     `json:"name"`
	EndpointPrefix    string     `json:"endpointPrefix"`
	Latency           int        `json:"latency"`
	Port              int        `json:"port"`
	Hostname          string     `json:"hostname"`
	Folders           []struct{} `json:"folders"`
	Routes            []Route    `json:"routes"`
	ProxyMode         bool       `json:"proxyMode"`
	ProxyHost         string     `json:"proxyHost"`
	ProxyRemovePrefix bool       `json:"proxyRemovePrefix"`
	TLSOptions        TLSOptions `json:"tlsOptions"`
	CORS              bool       `json:"cors"`
	Headers           []Header   `json:"headers"`
	ProxyReqHeaders   []Header   `json:"proxyReqHeaders"`
	ProxyResHeaders   []Header   `json:"proxyResHeaders"`
	Data              []struct{} `json:"data"`
}

// Route is one mocked endpoint.
type Route struct {
	UUID          string          `json:"uuid"`
	Documentation string          `json:"documentation"`
	Method        string          `json:"method"`
	Endpoint      string          `json:"endpoint"`
	Responses     []RouteResponse `json:"responses"`
	Enabled       bool            `json:"enabled"`
	ResponseMode  *string         `json:"responseMode"`
}

// RouteResponse is one response variant of a route.
type RouteResponse struct {
	UUID              string   `json:"uuid"`
	Body              string   `json:"body"`
	Latency           int      `json:"latency"`
	StatusCode        int      `json:"statusCode"`
	Label             string   `json:"label"`
	Headers           []Header `json:"headers"`
	BodyType          string   `json:"bodyType"`
	FilePath          string   `json:"filePath"`
	DatabucketID      string   `json:"databucketID"`
	SendFileAsBody    bool     `json:"sendFileAsBody"`
	Rules             []Rule   `json:"rules"`
	RulesOperator     string   `json:"rulesOperator"`
	DisableTemplating bool     `json:"disableTemplating"`
	FallbackTo404     bool     `json:"fallbackTo404"`
	Default           bool     `json:"default"`
}

// Rule is a Mockoon response rule. The compiler emits none, but the
// field must serialize as an empty array, not null.
type Rule struct {
	Target   string `json:"target"`
	Modifier string `json:"modifier"`
	Value    string `json:"value"`
	Operator string `json:"operator"`
	Invert   bool   `json:"invert"`
}

// Header is a key/value header entry.
type Header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// TLSOptions is the environment TLS block, disabled in compiled
// tables.
type TLSOptions struct {
	Enabled    bool   `json:"enabled"`
	Type       string `json:"type"`
	PfxPath    string `json:"pfxPath"`
	CertPath   string `json:"certPath"`
	KeyPath    string `json:"keyPath"`
	CAPath     string `json:"caPath"`
	Passphrase string `json:"passphrase"`
}

// defaultEnvironmentHeaders are served on every mocked response unless
// a route overrides them.
var defaultEnvironmentHeaders = []Header{
	{Key: "Content-Type", Value: "application/json"},
	{Key: "Access-Control-Allow-Origin", Value: "*"},
	{Key: "Access-Control-Allow-Methods", Value: "GET,POST,PUT,PATCH,DELETE,HEAD,OPTIONS"},
	{Key: "Access-Control-Allow-Headers", Value: "*"},
}

// newEnvironment builds an environment document with the standing
// defaults and no routes yet.
func newEnvironment(id, name string, port int, hostname string) *Environment {
	return &Environment{
		UUID:            id,
		LastMigration:   27,
		Name:            name,
		Latency:         0,
		Port:            port,
		Hostname:        hostname,
		Folders:         []struct{}{},
		Routes:          []Route{},
		TLSOptions:      TLSOptions{Type: "CERT"},
		CORS:            true,
		Headers:         defaultEnvironmentHeaders,
		ProxyReqHeaders: []Header{{}},
		ProxyResHeaders: []Header{{}},
		Data:            []struct{}{},
	}
}
