// Package queue persists generation jobs in SQLite so requests survive
// restarts and a background worker can process them one at a time.
package queue
