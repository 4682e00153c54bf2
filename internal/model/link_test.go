package model

import (
	"testing"
	"time"
)

func TestLinkIsExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"未到期", now.Add(time.Hour), false},
		{"恰好到期时刻", now, false},
		{"已过期", now.Add(-time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := UploadLink{ExpiresAt: tt.expiresAt}
			if got := link.IsExpired(now); got != tt.want {
				t.Errorf("IsExpired = %v, 期望 %v", got, tt.want)
			}
		})
	}
}

func TestLinkQuotaReached(t *testing.T) {
	tests := []struct {
		name    string
		current int
		max     int
		want    bool
	}{
		{"未用完", 9, 10, false},
		{"恰好用完", 10, 10, true},
		{"超出", 11, 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := UploadLink{CurrentUploads: tt.current, MaxUploads: tt.max}
			if got := link.QuotaReached(); got != tt.want {
				t.Errorf("QuotaReached = %v, 期望 %v", got, tt.want)
			}
		})
	}
}
