// Package manifest loads batch manifests: files listing many extraction
// jobs, each pointing at an extraction config with its own params.
//
// # Manifest Format
//
// Manifests can be written in YAML or JSON format:
//
//	jobs:
//	  - config: configs/roster.yaml
//	    params:
//	      team: red
//	  - config: configs/roster.yaml
//	    params:
//	      team: blue
//	    output: ./out/blue.json
//	options:
//	  continue_on_error: true
//	  output: ./out
//	  concurrency: 4
//
// Relative config paths are resolved against the manifest's directory.
//
// # Error Handling
//
// The package defines sentinel errors for common failure cases:
//   - ErrNoJobs: manifest has no jobs defined
//   - ErrEmptyConfig: job is missing the config path
//   - ErrInvalidFormat: file is not valid YAML/JSON
//   - ErrFileNotFound: manifest file does not exist
//   - ErrUnsupportedExt: unsupported file extension
package manifest
