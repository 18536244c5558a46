// Meridian is an HTTP traffic interception engine for mobile end-to-end
// testing.
//
// It sits between the app under test and its backends as an HTTP proxy,
// providing:
//   - Per-request routing between real and mock backends
//   - Automatic fallback to the mock backend on real-backend errors
//   - Blending of supplemental mock data into real responses
//   - Selective recording of exchanges for later replay
//   - Compilation of recorded traffic into Mockoon route tables
//
// Usage:
//
//	# Start the proxy with default configuration
//	meridian run
//
//	# Start with a custom configuration file
//	meridian run --config /path/to/config.yaml
//
//	# Check a configuration file without starting
//	meridian validate
//
//	# Compile a recordings log into a Mockoon environment
//	meridian compile recordings.jsonl -o mocks.json
//
//	# Inspect what has been recorded
//	meridian recordings stats
package main

func main() {
	Execute()
}
