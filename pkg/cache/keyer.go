package cache

// Keyer derives cache keys for each pipeline stage.
type Keyer interface {
	// ProbeKey identifies a decoded image size.
	ProbeKey(path string, modTime int64, fileSize int64) string

	// LayoutKey identifies a layout computed from a list of sizes.
	LayoutKey(sizesHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies a rendered artifact of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts holds the options that change a layout.
type LayoutKeyOpts struct {
	Width      float64 `json:"width"`
	MaxBlocks  float64 `json:"max_blocks"`
	Separation float64 `json:"separation"`
	RowGap     float64 `json:"row_gap"`
	Weights    any     `json:"weights"`
}

// ArtifactKeyOpts holds the options that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format    string  `json:"format"`
	Title     string  `json:"title"`
	Tag       string  `json:"tag"`
	Page      int     `json:"page"`
	PageCount int     `json:"page_count"`
	ItemsHash string  `json:"items_hash"`
	ImageBase string  `json:"image_base"`
	Labels    bool    `json:"labels"`
	PrevURL   string  `json:"prev_url"`
	NextURL   string  `json:"next_url"`
	Scale     float64 `json:"scale"`
}

// DefaultKeyer builds keys of the form "stage:sha256(parts)".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ProbeKey implements Keyer.
func (DefaultKeyer) ProbeKey(path string, modTime, fileSize int64) string {
	return hashKey("probe", path, modTime, fileSize)
}

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(sizesHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", sizesHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return "artifact:" + opts.Format + hashKey("", layoutHash, opts)
}
