package docmirror

// Target is the immutable configuration for a single mirror run.
type Target struct {
	// StartURL seeds the crawl and defines the scope: only pages on the
	// same host whose path falls under StartURL's path are followed.
	StartURL string

	// OutputRoot is the directory the mirrored .md tree is written under.
	OutputRoot string

	// MaxDepth bounds link-following distance from StartURL.
	// Zero means fetch only the start page.
	MaxDepth int

	// Quiet suppresses per-page progress output. The final summary is
	// always reported.
	Quiet bool
}

// Validate returns an error if the target contains invalid fields.
func (t *Target) Validate() error {
	if t.StartURL == "" {
		return Errorf(EINVALID, "start URL required")
	}
	if t.OutputRoot == "" {
		return Errorf(EINVALID, "output root required")
	}
	if t.MaxDepth < 0 {
		return Errorf(EINVALID, "max depth must be non-negative, got %d", t.MaxDepth)
	}
	return nil
}
