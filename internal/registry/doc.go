// Package registry holds the build types known to the tool.
//
// A build type is the contract between the orchestrator and one kind of
// package: a name, a human-readable description, and factory functions
// that turn a package descriptor plus workspace context into jobs. Build
// types register themselves at startup; the orchestrator looks them up by
// name when constructing the build graph.
package registry
