// Package task provides a bounded in-memory work queue and worker pool
// used to fan generation work out across document sections.
package task
