package viz

import (
	"encoding/json"
	"fmt"
)

// Kind identifies a chart configuration variant.
type Kind string

const (
	KindBar     Kind = "bar"
	KindLine    Kind = "line"
	KindPie     Kind = "pie"
	KindScatter Kind = "scatter"
	KindTable   Kind = "table"
	// KindOpaque marks a payload whose type the client does not understand.
	// The raw JSON is preserved so nothing is lost.
	KindOpaque Kind = "opaque"
)

// Visualization is a chart configuration attached to an assistant message.
// Exactly one of the variant fields is set, matching Kind; unknown payloads
// decode into the Opaque variant so rendering can always pattern-match.
type Visualization struct {
	Kind    Kind
	Bar     *BarChart
	Line    *LineChart
	Pie     *PieChart
	Scatter *ScatterChart
	Table   *Table
	Opaque  json.RawMessage
}

// BarChart is a categorical bar chart
type BarChart struct {
	Title  string    `json:"title"`
	XLabel string    `json:"x_label,omitempty"`
	YLabel string    `json:"y_label,omitempty"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// LineChart is a series-over-x line chart
type LineChart struct {
	Title  string   `json:"title"`
	XLabel string   `json:"x_label,omitempty"`
	YLabel string   `json:"y_label,omitempty"`
	X      []string `json:"x"`
	Series []Series `json:"series"`
}

// Series is a named sequence of y values
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// PieChart is a share-of-whole chart
type PieChart struct {
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// ScatterChart is a set of x/y points
type ScatterChart struct {
	Title  string    `json:"title"`
	XLabel string    `json:"x_label,omitempty"`
	YLabel string    `json:"y_label,omitempty"`
	X      []float64 `json:"x"`
	Y      []float64 `json:"y"`
}

// Table is a tabular result
type Table struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// envelope is the wire shape: a type tag plus the variant payload inline.
type envelope struct {
	Type Kind `json:"type"`
}

// UnmarshalJSON dispatches on the "type" tag. Payloads with a missing or
// unknown tag become the Opaque variant rather than an error.
func (v *Visualization) UnmarshalJSON(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("failed to decode visualization: %w", err)
	}

	*v = Visualization{Kind: env.Type}
	switch env.Type {
	case KindBar:
		v.Bar = &BarChart{}
		return json.Unmarshal(data, v.Bar)
	case KindLine:
		v.Line = &LineChart{}
		return json.Unmarshal(data, v.Line)
	case KindPie:
		v.Pie = &PieChart{}
		return json.Unmarshal(data, v.Pie)
	case KindScatter:
		v.Scatter = &ScatterChart{}
		return json.Unmarshal(data, v.Scatter)
	case KindTable:
		v.Table = &Table{}
		return json.Unmarshal(data, v.Table)
	default:
		v.Kind = KindOpaque
		v.Opaque = append(json.RawMessage(nil), data...)
		return nil
	}
}

// MarshalJSON re-emits the variant payload with its type tag.
func (v Visualization) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.Kind {
	case KindBar:
		payload = v.Bar
	case KindLine:
		payload = v.Line
	case KindPie:
		payload = v.Pie
	case KindScatter:
		payload = v.Scatter
	case KindTable:
		payload = v.Table
	case KindOpaque:
		return append([]byte(nil), v.Opaque...), nil
	default:
		return nil, fmt.Errorf("unknown visualization kind: %q", v.Kind)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	// Splice the type tag into the payload object.
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	m["type"] = v.Kind
	return json.Marshal(m)
}

// Title returns the variant's title, or an empty string for opaque payloads.
func (v Visualization) Title() string {
	switch v.Kind {
	case KindBar:
		return v.Bar.Title
	case KindLine:
		return v.Line.Title
	case KindPie:
		return v.Pie.Title
	case KindScatter:
		return v.Scatter.Title
	case KindTable:
		return v.Table.Title
	}
	return ""
}
