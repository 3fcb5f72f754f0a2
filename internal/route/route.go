// Package route models the single-page application's navigation table so
// services can resolve a page path the same way the browser router does.
package route

import "strings"

// Route names.
const (
	Index         = "Index"
	Documentation = "Documentation"
	ProjectList   = "ProjectList"
	Workspace     = "Workspace"
	Overview      = "Overview"
	FileManager   = "FileManager"
	PipelineTool  = "PipelineTool"
)

// Route is one entry of the navigation table. Pattern segments starting with
// ":" bind a parameter.
type Route struct {
	Name     string
	Pattern  string
	Redirect func(params map[string]string) string // nil when the route renders a page
}

// Match is the result of resolving a path.
type Match struct {
	Name       string            `json:"name"`
	Params     map[string]string `json:"params"`
	RedirectTo string            `json:"redirect_to,omitempty"`
}

// Table is an ordered list of routes; the first matching pattern wins.
type Table []Route

// Default is the application's route table.
var Default = Table{
	{Name: Index, Pattern: "/"},
	{Name: Documentation, Pattern: "/documentation"},
	{Name: ProjectList, Pattern: "/projects"},
	{
		Name:    Workspace,
		Pattern: "/workspace/:id",
		Redirect: func(params map[string]string) string {
			return "/workspace/" + params["id"] + "/overview"
		},
	},
	{Name: Overview, Pattern: "/workspace/:id/overview"},
	{Name: FileManager, Pattern: "/workspace/:id/filemanager"},
	{Name: PipelineTool, Pattern: "/workspace/:id/tool/:tool"},
}

// Match resolves a path against the table. Query strings, fragments and a
// trailing slash are ignored.
func (t Table) Match(path string) (Match, bool) {
	segments := splitPath(path)
	for _, r := range t {
		params, ok := matchSegments(splitPath(r.Pattern), segments)
		if !ok {
			continue
		}
		m := Match{Name: r.Name, Params: params}
		if r.Redirect != nil {
			m.RedirectTo = r.Redirect(params)
		}
		return m, true
	}
	return Match{}, false
}

// Resolve follows redirects until a page route is reached. It gives up after
// len(t) hops so a misconfigured table cannot loop.
func (t Table) Resolve(path string) (Match, bool) {
	m, ok := t.Match(path)
	for hops := 0; ok && m.RedirectTo != "" && hops < len(t); hops++ {
		m, ok = t.Match(m.RedirectTo)
	}
	if ok && m.RedirectTo != "" {
		return Match{}, false
	}
	return m, ok
}

// Build renders the path of a named route with the given params.
func (t Table) Build(name string, params map[string]string) (string, bool) {
	for _, r := range t {
		if r.Name != name {
			continue
		}
		parts := splitPath(r.Pattern)
		for i, p := range parts {
			if strings.HasPrefix(p, ":") {
				v, ok := params[p[1:]]
				if !ok || v == "" {
					return "", false
				}
				parts[i] = v
			}
		}
		return "/" + strings.Join(parts, "/"), true
	}
	return "", false
}

func splitPath(path string) []string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func matchSegments(pattern, segments []string) (map[string]string, bool) {
	if len(pattern) != len(segments) {
		return nil, false
	}
	params := make(map[string]string)
	for i, p := range pattern {
		if strings.HasPrefix(p, ":") {
			if segments[i] == "" {
				return nil, false
			}
			params[p[1:]] = segments[i]
			continue
		}
		if p != segments[i] {
			return nil, false
		}
	}
	return params, true
}
