package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// AdvisorSessionKey returns the cache key holding the JTI of an advisor's active session
func (r *CacheKeyStruct) AdvisorSessionKey(advisorID int) string {
	return fmt.Sprintf("advisor:%d:session", advisorID)
}

// AdvisorNotificationChannel returns the Redis PubSub channel for an advisor's notifications
func (r *CacheKeyStruct) AdvisorNotificationChannel(advisorID int) string {
	return fmt.Sprintf("advisor:%d:notifications", advisorID)
}

// AlertDedupKey marks an alert for a student as recently sent by an advisor
func (r *CacheKeyStruct) AlertDedupKey(advisorID, studentID int) string {
	return fmt.Sprintf("advisor:%d:alert:%d", advisorID, studentID)
}

var CacheKey = NewCacheKeyStruct()
