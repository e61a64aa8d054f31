// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/ommathur/quickpick/pkg/types"
)

// Report is the serialized form of a finished run.
type Report struct {
	RunID    string               `json:"run_id" yaml:"run_id"`
	Product  string               `json:"product" yaml:"product"`
	Groups   []Group              `json:"groups" yaml:"groups"`
	Statuses []types.SourceStatus `json:"statuses" yaml:"statuses"`
}

// NewReport builds the Report for res.
func NewReport(res *Result) Report {
	groups := res.View.Groups()
	if groups == nil {
		groups = []Group{}
	}
	return Report{
		RunID:    res.RunID,
		Product:  res.Product,
		Groups:   groups,
		Statuses: res.Combined.Statuses,
	}
}

// FormatTable writes the partition view as one section per source, then a
// warning line for every source that failed.
func FormatTable(res *Result, w io.Writer) {
	fmt.Fprintf(w, "%s & similar products\n", res.Product)

	groups := res.View.Groups()
	if len(groups) == 0 {
		fmt.Fprintln(w, "\nNo results found.")
	}
	for _, g := range groups {
		fmt.Fprintf(w, "\n%s\n", g.Label)
		fmt.Fprintf(w, "%-40s  %-10s  %-14s  %-9s  %s\n", "Product", "Unit", "Price", "Available", "URL")
		fmt.Fprintln(w, strings.Repeat("-", 100))
		for _, it := range g.Items {
			fmt.Fprintf(w, "%-40s  %-10s  %-14s  %-9s  %s\n",
				truncate(it.DisplayName, 40), truncate(it.Unit, 10), formatPrice(it), yesNo(it.Available), it.URL)
		}
	}

	for _, st := range res.Combined.Failed() {
		fmt.Fprintf(w, "\nwarning: %s could not be reached: %s\n", st.Source.Label(), st.Error)
	}
}

// FormatJSON writes the Report as indented JSON.
func FormatJSON(res *Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewReport(res))
}

// FormatYAML writes the Report as YAML.
func FormatYAML(res *Result, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewReport(res)); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	return enc.Close()
}

func formatPrice(it types.ItemRecord) string {
	if !it.Available {
		return "Not Available"
	}
	return "₹" + it.Price.String()
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
