// Package services provides shared error classification and context plumbing
// for the external integrations the generation pipeline depends on.
package services
