package logger

import "github.com/rs/zerolog"

// SetVerbose selects the global level: debug when verbose, info otherwise.
func SetVerbose(verbose bool) {
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}
