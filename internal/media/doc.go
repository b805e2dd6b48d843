// Package media holds the routing decision for uploaded files and the
// segment references shared by the splitter, job manager, and relocator.
package media
