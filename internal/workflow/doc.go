// Package workflow contains the orchestration engine: the per-upload state
// machine that sequences classification, splitting, job submission, the
// poll-until-complete convergence loop, and caption relocation, plus the
// daemon manager that claims pending executions from the registry.
package workflow
