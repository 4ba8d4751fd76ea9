package shared

import (
	"os"
)

// DebugPrint prints debug messages when debug mode is enabled
func DebugPrint(debug bool, format string, args ...interface{}) {
	if debug {
		ColorDebug.Printf("DEBUG: "+format+"\n", args...)
	}
}

// IsDebugMode checks if debug mode is enabled via environment variable
func IsDebugMode() bool {
	return os.Getenv("DEBUG") == "1" || os.Getenv("DEBUG") == "true"
}
