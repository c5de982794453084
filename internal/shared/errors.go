package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Repository errors
	ErrNotInitialized = fmt.Errorf("repository not initialized")
	ErrAlreadyExists  = fmt.Errorf("repository already exists")
	ErrRepoNotFound   = fmt.Errorf("repository not found")

	// Remote service errors
	ErrAPIRequest        = fmt.Errorf("API request failed")
	ErrRemoteUnavailable = fmt.Errorf("remote collection unavailable")
	ErrCollectionPrivate = fmt.Errorf("collection is private or requires login")

	// Download errors
	ErrMaterialize  = fmt.Errorf("failed to materialize item")
	ErrNoStreams    = fmt.Errorf("no stream locations available")
	ErrFFmpegFailed = fmt.Errorf("ffmpeg invocation failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidQuality  = fmt.Errorf("invalid quality tier")
)
