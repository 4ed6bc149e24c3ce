package config

import "fmt"

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentLoginKey returns the cache key for a student's login session (JTI).
func (r *CacheKeyStruct) StudentLoginKey(studentID int) string {
	return fmt.Sprintf("login:%d", studentID)
}

// VivaBankKey returns the cache key for a published viva's question bank payload.
func (r *CacheKeyStruct) VivaBankKey(vivaID string) string {
	return fmt.Sprintf("viva:%s:bank", vivaID)
}

// ActiveSessionKey returns the cache key for an active adaptive session snapshot.
func (r *CacheKeyStruct) ActiveSessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s:state", sessionID)
}

// VivaMonitorChannel returns the Redis PubSub channel for a viva's live monitor.
func (r *CacheKeyStruct) VivaMonitorChannel(vivaID string) string {
	return fmt.Sprintf("viva:%s:monitor", vivaID)
}

var CacheKey = NewCacheKeyStruct()
