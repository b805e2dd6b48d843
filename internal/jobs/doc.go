// Package jobs submits transcription jobs to the speech-to-text service and
// monitors them until they reach a terminal state. The monitor is stateless
// per call; the poll-until-complete convergence loop belongs to the workflow
// orchestrator.
package jobs
