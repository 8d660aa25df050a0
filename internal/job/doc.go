// Package job defines the build plan descriptors shared between planners
// and executors.
//
// A [Job] is one package's complete ordered build plan plus its dependency
// and environment metadata. Each element of the plan is a [Stage]: either a
// [CommandStage], which runs an external process, or a [FunctionStage],
// which calls an in-process function with arguments bound at plan time.
//
// Stages are plain data. Planners decide what to do; an executor decides
// how and when to do it. A stage may declare a named resource via its
// locked-resource token, which the executor must hold exclusively while the
// stage runs. [LockInstallSpace] guards the shared install tree that all
// packages write into.
package job
