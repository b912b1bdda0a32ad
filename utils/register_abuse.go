package utils

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dimoniiio/blogicum/config"
)

// Per-IP registration throttling backed by Redis. All checks fail open so a
// Redis outage degrades to unthrottled registration rather than an outage.

// RegistrationCooldownTry enforces a short cooldown between attempts per IP.
func RegistrationCooldownTry(ip string) bool {
	cfg := config.Get()
	sec := cfg.RegisterAttemptCooldownSec
	if sec <= 0 {
		return true
	}
	cli := GetRedis()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	ok, err := cli.SetNX(ctx, "reg:cooldown:"+ip, "1", time.Duration(sec)*time.Second).Result()
	if err != nil {
		return true
	}
	return ok
}

// RegistrationDailyLimitCheck allows up to N registrations per day per IP.
func RegistrationDailyLimitCheck(ip string) bool {
	cfg := config.Get()
	limit := cfg.RegisterMaxPerIPPerDay
	if limit <= 0 {
		return true
	}
	cli := GetRedis()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	key := "reg:day:" + ip + ":" + time.Now().Format("20060102")
	n, err := cli.Get(ctx, key).Int()
	if err != nil && err != redis.Nil {
		return true
	}
	return n < limit
}

// RegistrationRecord counts a successful registration against the daily limit.
func RegistrationRecord(ip string) {
	cli := GetRedis()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	key := "reg:day:" + ip + ":" + time.Now().Format("20060102")
	if n, err := cli.Incr(ctx, key).Result(); err == nil && n == 1 {
		cli.Expire(ctx, key, 24*time.Hour)
	}
}
