package abi

import (
	"math"
	"testing"
	"time"

	"github.com/CryZe/lasr-compiler/domain/entities"
	"github.com/stretchr/testify/assert"
)

func TestAnswer(t *testing.T) {
	tests := []struct {
		v    entities.Value
		want int32
	}{
		{entities.Absent(), AnswerNone},
		{entities.Bool(true), AnswerTrue},
		{entities.Bool(false), AnswerFalse},
		{entities.Number(0), AnswerTrue},
		{entities.String(""), AnswerTrue},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Answer(tt.v), tt.v.String())
	}
	assert.Equal(t, entities.Bool(true), DecodeAnswer(AnswerTrue))
	assert.Equal(t, entities.Bool(false), DecodeAnswer(AnswerFalse))
	assert.True(t, DecodeAnswer(AnswerNone).IsAbsent())
	assert.True(t, DecodeAnswer(7).IsAbsent())
}

func TestGameTime(t *testing.T) {
	assert.True(t, math.IsNaN(GameTime(entities.Absent())))
	assert.True(t, math.IsNaN(GameTime(entities.Bool(true))))
	assert.Equal(t, 1234.5, GameTime(entities.Number(1234.5)))

	assert.True(t, DecodeGameTime(math.NaN()).IsAbsent())
	assert.Equal(t, entities.Number(10), DecodeGameTime(10))
}

func TestSplitDuration(t *testing.T) {
	tests := []struct {
		d     time.Duration
		secs  int64
		nanos int32
	}{
		{0, 0, 0},
		{1500 * time.Millisecond, 1, 500_000_000},
		{90 * time.Minute, 5400, 0},
		{-250 * time.Millisecond, -1, 750_000_000},
	}
	for _, tt := range tests {
		secs, nanos := SplitDuration(tt.d)
		assert.Equal(t, tt.secs, secs, tt.d.String())
		assert.Equal(t, tt.nanos, nanos, tt.d.String())
		assert.Equal(t, tt.d, JoinDuration(secs, nanos))
	}
}
