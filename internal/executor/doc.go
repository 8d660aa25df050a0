// Package executor runs planned jobs.
//
// One [Executor] runs any number of jobs; each job's stages run strictly
// in the order they were planned, and the first failing stage aborts the
// job. Stages that declare a locked resource hold the named lock for their
// duration, so concurrent Run calls on the same executor serialize their
// writes into shared trees such as the install space.
//
// This is a reference runner: it has no dependency scheduling, no retry
// policy, and no job queue. Callers decide which jobs to run and when.
package executor
