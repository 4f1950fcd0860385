package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// Redis key prefixes for the availability cache and slot holds
	availabilityKeyPrefix = "availability:"
	slotHoldKeyPrefix     = "slot:hold:"

	// How long a slot hold survives if its owner never releases it.
	// Long enough to cover the booking transaction, short enough that
	// a crashed request cannot block a slot for a noticeable time.
	slotHoldTTL = 10 * time.Second
)

// releaseSlotScript deletes a hold key only when it still carries the
// caller's token, so a request never releases a hold re-acquired by
// someone else after its own TTL expired. Redis Go client automatically
// uses EVALSHA after the first call.
var releaseSlotScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// AvailabilityCache keeps the booked slot labels per (doctor, day) in
// Redis and hands out short-lived slot holds that serialize concurrent
// booking admissions for the same slot across processes.
//
// The cache is an optimization layer only: every method degrades to a
// warn log when Redis misbehaves, and callers fall back to the
// database. Slot holds are the exception: acquisition races are
// meaningful, so HoldSlot reports them to the caller.
type AvailabilityCache struct {
	redisClient *redis.Client
	log         *logrus.Logger
	ttl         time.Duration
}

func NewAvailabilityCache(redisClient *redis.Client, log *logrus.Logger, ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{
		redisClient: redisClient,
		log:         log,
		ttl:         ttl,
	}
}

// GetBookedSlots returns the cached booked labels for the doctor's day.
// The second result is false on a miss or any Redis failure.
func (c *AvailabilityCache) GetBookedSlots(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]string, bool) {
	raw, err := c.redisClient.Get(ctx, c.dayKey(doctorID, day)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warnf("Failed to read availability cache for doctor %s: %+v", doctorID, err)
		}
		return nil, false
	}

	var booked []string
	if err := json.Unmarshal(raw, &booked); err != nil {
		c.log.Warnf("Corrupt availability cache entry for doctor %s: %+v", doctorID, err)
		return nil, false
	}
	return booked, true
}

// SetBookedSlots stores the booked labels for the doctor's day with the
// configured TTL. Failures are logged and swallowed.
func (c *AvailabilityCache) SetBookedSlots(ctx context.Context, doctorID uuid.UUID, day time.Time, booked []string) {
	if booked == nil {
		booked = []string{}
	}
	raw, err := json.Marshal(booked)
	if err != nil {
		c.log.Warnf("Failed to encode availability cache entry for doctor %s: %+v", doctorID, err)
		return
	}
	if err := c.redisClient.Set(ctx, c.dayKey(doctorID, day), raw, c.ttl).Err(); err != nil {
		c.log.Warnf("Failed to write availability cache for doctor %s: %+v", doctorID, err)
	}
}

// InvalidateDay drops the cached entry after a booking or status change
// touched the doctor's day. Failures are logged and swallowed; the
// entry expires on its own TTL anyway.
func (c *AvailabilityCache) InvalidateDay(ctx context.Context, doctorID uuid.UUID, day time.Time) {
	if err := c.redisClient.Del(ctx, c.dayKey(doctorID, day)).Err(); err != nil {
		c.log.Warnf("Failed to invalidate availability cache for doctor %s: %+v", doctorID, err)
	}
}

// HoldSlot attempts to acquire a short-lived exclusive hold on the
// (doctor, day, time) slot. Returns false when another request already
// holds it. The token identifies the owner for ReleaseSlot.
func (c *AvailabilityCache) HoldSlot(ctx context.Context, doctorID uuid.UUID, day time.Time, timeLabel, token string) (bool, error) {
	ok, err := c.redisClient.SetNX(ctx, c.holdKey(doctorID, day, timeLabel), token, slotHoldTTL).Result()
	if err != nil {
		return false, fmt.Errorf("acquire slot hold: %w", err)
	}
	return ok, nil
}

// ReleaseSlot releases a hold previously acquired with the same token.
// Safe to call after the hold expired. Failures are logged and
// swallowed; the TTL bounds the damage.
func (c *AvailabilityCache) ReleaseSlot(ctx context.Context, doctorID uuid.UUID, day time.Time, timeLabel, token string) {
	if err := releaseSlotScript.Run(ctx, c.redisClient, []string{c.holdKey(doctorID, day, timeLabel)}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		c.log.Warnf("Failed to release slot hold for doctor %s at %s: %+v", doctorID, timeLabel, err)
	}
}

func (c *AvailabilityCache) dayKey(doctorID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("%s%s:%s", availabilityKeyPrefix, doctorID, day.Format("2006-01-02"))
}

func (c *AvailabilityCache) holdKey(doctorID uuid.UUID, day time.Time, timeLabel string) string {
	return fmt.Sprintf("%s%s:%s:%s", slotHoldKeyPrefix, doctorID, day.Format("2006-01-02"), timeLabel)
}
