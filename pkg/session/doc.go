/*
Package session implements session management and persistence orchestration.

It serializes access to a session across goroutines (per-session mutex, reference
counted so idle sessions leave nothing behind) and, optionally, across replicas
through a ports.DistributedLocker, while delegating storage to a ports.SessionStore.
*/
package session
