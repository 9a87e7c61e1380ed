package layout

// Default dimensions in canvas units.
const (
	DefaultNodeWidth   = 200.0
	DefaultBaseHeight  = 48.0
	DefaultRowHeight   = 24.0
	DefaultMaxRows     = 2
	DefaultNodeGap     = 40.0
	DefaultBranchGap   = 24.0
	DefaultWorkflowGap = 80.0
)

// Options holds the box size and gaps used by [Compute].
type Options struct {
	NodeWidth   float64 `json:"node_width" toml:"node_width"`
	BaseHeight  float64 `json:"base_height" toml:"base_height"`
	RowHeight   float64 `json:"row_height" toml:"row_height"`
	MaxRows     int     `json:"max_rows" toml:"max_rows"`
	NodeGap     float64 `json:"node_gap" toml:"node_gap"`
	BranchGap   float64 `json:"branch_gap" toml:"branch_gap"`
	WorkflowGap float64 `json:"workflow_gap" toml:"workflow_gap"`
}

// DefaultOptions returns the canvas dimensions.
func DefaultOptions() Options {
	return Options{
		NodeWidth:   DefaultNodeWidth,
		BaseHeight:  DefaultBaseHeight,
		RowHeight:   DefaultRowHeight,
		MaxRows:     DefaultMaxRows,
		NodeGap:     DefaultNodeGap,
		BranchGap:   DefaultBranchGap,
		WorkflowGap: DefaultWorkflowGap,
	}
}

// Scaled returns o with every dimension multiplied by f. MaxRows is a count
// and is kept.
func (o Options) Scaled(f float64) Options {
	o = o.withDefaults()
	return Options{
		NodeWidth:   o.NodeWidth * f,
		BaseHeight:  o.BaseHeight * f,
		RowHeight:   o.RowHeight * f,
		MaxRows:     o.MaxRows,
		NodeGap:     o.NodeGap * f,
		BranchGap:   o.BranchGap * f,
		WorkflowGap: o.WorkflowGap * f,
	}
}

// withDefaults fills a zero Options with the defaults. Partially set options
// are used as given.
func (o Options) withDefaults() Options {
	if o == (Options{}) {
		return DefaultOptions()
	}
	return o
}

// rows returns the number of input rows counted for sizing.
func (o Options) rows(inputs int) int {
	return max(0, min(inputs, o.MaxRows))
}

// nodeHeight returns the box height of a node with the given input count.
func (o Options) nodeHeight(inputs int) float64 {
	return o.BaseHeight + o.RowHeight*float64(o.rows(inputs))
}
