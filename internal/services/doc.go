// Package services holds the error taxonomy and context annotations shared
// between scribe's external collaborators (object store, splitter tool,
// speech-to-text service, job registry).
package services
