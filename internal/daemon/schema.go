package daemon

import "github.com/google/jsonschema-go/jsonschema"

// envelopeSchemas declares the JSON Schema for each route's request body,
// in the same style the teacher's MCP tool registration uses for
// InputSchema (internal/mcp/server.go's registerTools). They are exposed
// through EnvelopeSchema only; the HTTP handlers do not validate request
// bodies against them, and no MCP tool surface uses them.
var envelopeSchemas = map[string]*jsonschema.Schema{
	"search": {
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"schema_version": {Type: "integer", Description: "protocol version; must match the daemon's"},
			"project_root":   {Type: "string"},
			"query":          {Type: "string"},
			"limit":          {Type: "integer"},
			"with_refs":      {Type: "boolean"},
			"refs_limit":     {Type: "integer"},
			"profiles":       {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
			"refine":         {Type: "string", Description: "query_id (UUID) to refine"},
			"inherit_filters": {Type: "boolean"},
			"filter_ops":     {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
			"input_format":   {Type: "string", Description: "json | freeform"},
			"freeform":       {Type: "string"},
		},
		Required: []string{"schema_version"},
	},
	"open": {
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"schema_version": {Type: "integer"},
			"project_root":   {Type: "string"},
			"path":           {Type: "string"},
			"start_line":     {Type: "integer"},
			"end_line":       {Type: "integer"},
		},
		Required: []string{"schema_version", "path"},
	},
	"snippet": {
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"schema_version": {Type: "integer"},
			"project_root":   {Type: "string"},
			"path":           {Type: "string"},
			"line":           {Type: "integer"},
			"before":         {Type: "integer"},
			"after":          {Type: "integer"},
		},
		Required: []string{"schema_version", "path", "line"},
	},
	"atlas": {
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"schema_version": {Type: "integer"},
			"project_root":   {Type: "string"},
		},
		Required: []string{"schema_version"},
	},
	"profile": {
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"schema_version": {Type: "integer"},
			"project_root":   {Type: "string"},
			"query":          {Type: "string"},
			"profiles":       {Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		},
		Required: []string{"schema_version", "query"},
	},
	"insights": {
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"schema_version": {Type: "integer"},
			"project_root":   {Type: "string"},
		},
		Required: []string{"schema_version"},
	},
	"reindex": {
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"schema_version": {Type: "integer"},
			"project_root":   {Type: "string"},
			"full":           {Type: "boolean"},
		},
		Required: []string{"schema_version"},
	},
	"settings": {
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"schema_version":       {Type: "integer"},
			"project_root":         {Type: "string"},
			"auto_facet_max_depth": {Type: "integer"},
		},
		Required: []string{"schema_version"},
	},
}

// EnvelopeSchema returns the declared request schema for a route name
// ("search", "open", ...), or nil if unknown.
func EnvelopeSchema(route string) *jsonschema.Schema {
	return envelopeSchemas[route]
}
