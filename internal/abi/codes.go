// Package abi holds the value encodings shared by the guest exports and the
// host imports of an auto splitter module.
package abi

import (
	"math"
	"time"

	"github.com/CryZe/lasr-compiler/domain/entities"
)

// Status codes returned by startup and tick.
const (
	StatusOK     int32 = 0
	StatusBroken int32 = 1
)

// Answers returned by the boolean lifecycle exports.
const (
	AnswerFalse int32 = 0
	AnswerTrue  int32 = 1
	AnswerNone  int32 = -1
)

// Answer encodes a callback result for a boolean export.
func Answer(v entities.Value) int32 {
	if v.IsAbsent() {
		return AnswerNone
	}
	if v.Truthy() {
		return AnswerTrue
	}
	return AnswerFalse
}

// DecodeAnswer is the inverse of Answer.
func DecodeAnswer(code int32) entities.Value {
	switch code {
	case AnswerTrue:
		return entities.Bool(true)
	case AnswerFalse:
		return entities.Bool(false)
	default:
		return entities.Absent()
	}
}

// GameTime encodes a gameTime result in milliseconds, NaN when absent.
func GameTime(v entities.Value) float64 {
	if ms, ok := v.AsNumber(); ok {
		return ms
	}
	return math.NaN()
}

// DecodeGameTime is the inverse of GameTime.
func DecodeGameTime(ms float64) entities.Value {
	if math.IsNaN(ms) {
		return entities.Absent()
	}
	return entities.Number(ms)
}

// SplitDuration encodes d as whole seconds and the nanosecond remainder,
// the timer_set_game_time argument pair.
func SplitDuration(d time.Duration) (secs int64, nanos int32) {
	secs = int64(d / time.Second)
	nanos = int32(d % time.Second)
	if nanos < 0 {
		secs--
		nanos += int32(time.Second)
	}
	return secs, nanos
}

// JoinDuration is the inverse of SplitDuration.
func JoinDuration(secs int64, nanos int32) time.Duration {
	return time.Duration(secs)*time.Second + time.Duration(nanos)
}
