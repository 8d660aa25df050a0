// Parses flags and dispatches the anvil commands.
//
// The tool accepts the following global flags:
//
//	-q, --quiet       Suppress informational output.
//	-d, --debug       Enable debug output.
//	-C, --workspace   Workspace directory (defaults to the current directory).
//
// Flags override build-time defaults set via linker flags. After parsing,
// the global logger is reconfigured to reflect the final level before the
// selected command runs.
package cli
