package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing config, invalid paths)
	ExitDataError   = 3 // Data error (ambiguous key, malformed bibliography)
	ExitAPIError    = 4 // INSPIRE or arXiv unreachable, rate limited or erroring
	ExitCancelled   = 5 // User cancelled the selection
	ExitCheckFailed = 6 // check found problems
)
