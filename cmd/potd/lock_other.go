//go:build !unix

package main

import "errors"

var errAlreadyRunning = errors.New("already running")

type instanceLock struct{}

// acquireLock is a no-op where advisory file locks are unavailable.
func acquireLock(string) (*instanceLock, error) {
	return &instanceLock{}, nil
}

func (*instanceLock) release() {}
