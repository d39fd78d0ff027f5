// Package cache implements the sessions.Cache capability.
//
// Redis is used by every networked environment and shares the server with
// other services, hence the key prefix. Local is an in-process LRU used when
// the service runs on a developer machine.
package cache
