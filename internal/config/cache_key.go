package config

import (
	"fmt"
	"strings"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// examSlug flattens an exam composite key into a Redis-safe key fragment.
func examSlug(branch, year, semester, subject string) string {
	r := strings.NewReplacer(":", "_", " ", "_")
	return r.Replace(fmt.Sprintf("%s.%s.%s.%s", branch, year, semester, subject))
}

// ExamSessionKey returns the cache key for one student's in-progress attempt
// at one exam offering. This is the Session Store key.
func (r *CacheKeyStruct) ExamSessionKey(studentID int, branch, year, semester, subject string) string {
	return fmt.Sprintf("student:%d:exam:%s:session", studentID, examSlug(branch, year, semester, subject))
}

var CacheKey = NewCacheKeyStruct()
