package domain

// CommonOptions contains shared run options for the orchestrator and extractors.
type CommonOptions struct {
	Verbose  bool
	DryRun   bool
	Force    bool
	RenderJS bool
	// Params override the declared params of the extraction config
	Params map[string]string
}
