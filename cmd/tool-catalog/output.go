package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/triage-ai/palisade/services/tool_catalog/internal/catalog"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTools(w io.Writer, tools []catalog.Tool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPARAMS\tDESCRIPTION")
	for _, t := range tools {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", t.ToolName, len(t.Parameters), oneLine(t.Description))
	}
	return tw.Flush()
}

func printTool(w io.Writer, t catalog.Tool) error {
	fmt.Fprintf(w, "Name:        %s\n", t.ToolName)
	fmt.Fprintf(w, "Category:    %s\n", catalog.Categorize(t))
	fmt.Fprintf(w, "Description: %s\n", oneLine(t.Description))
	if len(t.Parameters) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	return printParameters(w, catalog.Descriptors(t))
}

func printParameters(w io.Writer, params map[string]catalog.ParameterDescriptor) error {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PARAMETER\tTYPE\tREQUIRED\tMULTIPLE\tDEFAULT\tEXTENSIONS")
	for _, name := range names {
		p := params[name]
		fmt.Fprintf(tw, "%s\t%s\t%t\t%t\t%s\t%s\n",
			name, p.Type, p.Required, p.Multiple, p.Default, strings.Join(p.Extensions, ","))
	}
	return tw.Flush()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
