package cache

import "github.com/matzehuels/flowcanvas/pkg/layout"

// Layout modes.
const (
	ModeCanvas   = "canvas"
	ModeOverview = "overview"
)

// LayoutKeyOpts are the inputs besides the source that determine a layout.
type LayoutKeyOpts struct {
	Mode    string         `json:"mode"`
	Zoom    float64        `json:"zoom,omitempty"`
	FrameW  float64        `json:"frame_w,omitempty"`
	FrameH  float64        `json:"frame_h,omitempty"`
	Padding float64        `json:"padding,omitempty"`
	Options layout.Options `json:"options"`
}

// ArtifactKeyOpts are the inputs that determine a rendered export.
type ArtifactKeyOpts struct {
	Format    string  `json:"format"`
	Detailed  bool    `json:"detailed,omitempty"`
	Reporters bool    `json:"reporters,omitempty"`
	Fields    bool    `json:"fields,omitempty"`
	Scale     float64 `json:"scale,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	LayoutKey(sourceHash string, opts LayoutKeyOpts) string
	ArtifactKey(sourceHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes every key component.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a [DefaultKeyer].
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey returns "layout:<sha256>".
func (DefaultKeyer) LayoutKey(sourceHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", sourceHash, opts)
}

// ArtifactKey returns "artifact:<sha256>".
func (DefaultKeyer) ArtifactKey(sourceHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sourceHash, opts)
}
