// Package transcribe defines the speech-to-text job contract the workflow
// requires (submit a job, get its status) and implements it against Amazon
// Transcribe with SubRip subtitle output.
package transcribe
