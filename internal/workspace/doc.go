// Package workspace models the directory layout a build operates in and
// the packages found inside it.
//
// A [Context] is the read-only configuration a planner consumes: the
// absolute source space, the per-package build, metadata, and install
// directory resolvers, extra build-tool arguments, and a snapshot of the
// process environment. Planners only read the context; nothing here is
// mutated during planning.
//
// A [Package] is discovered by scanning the source space for package.xml
// manifests. The package name and declared dependencies come from the
// manifest; the package path is recorded relative to the source space.
//
// The package also carries the small host-side operations that planners
// bind into function stages: idempotent directory creation, manifest
// caching, job environment finalization, and generation of the
// shell-sourceable setup.sh/env.sh pair at an install target.
package workspace
