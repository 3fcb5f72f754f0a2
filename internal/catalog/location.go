package catalog

import (
	"regexp"
	"strings"
)

// toolSegment matches the path segment that follows a literal "tool" segment.
var toolSegment = regexp.MustCompile(`/tool/([^/]+)`)

// ToolNameFromPath extracts the tool name from a path like
// /workspace/42/tool/bwa-mem/run. The first "/tool/<name>" occurrence wins.
// A query string or fragment is ignored, as in route.Table.Match.
func ToolNameFromPath(path string) (string, bool) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	m := toolSegment.FindStringSubmatch(path)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// CurrentToolFromLocation resolves the tool named in the given page path.
func (c *Catalog) CurrentToolFromLocation(path string) (Tool, bool) {
	name, ok := ToolNameFromPath(path)
	if !ok {
		return Tool{}, false
	}
	return c.FindByName(name)
}

// CurrentToolParameters returns the parameter descriptors of the tool named in
// the path, keyed by parameter name. A later duplicate name replaces an earlier
// one. The map is empty when no tool matches.
func (c *Catalog) CurrentToolParameters(path string) map[string]ParameterDescriptor {
	t, ok := c.CurrentToolFromLocation(path)
	if !ok {
		return map[string]ParameterDescriptor{}
	}
	return Descriptors(t)
}

// Descriptors builds the name-keyed descriptor map for a tool.
func Descriptors(t Tool) map[string]ParameterDescriptor {
	out := make(map[string]ParameterDescriptor, len(t.Parameters))
	for _, p := range t.Parameters {
		out[p.Name] = p.Descriptor()
	}
	return out
}

// Descriptor applies the form defaults to a parameter.
func (p Parameter) Descriptor() ParameterDescriptor {
	exts := p.Extensions
	if exts == nil {
		exts = []string{}
	}
	return ParameterDescriptor{
		Type:        p.Type,
		Description: p.Description,
		Required:    p.Required,
		Default:     string(p.Default),
		Multiple:    p.Multiple,
		Extensions:  exts,
	}
}
