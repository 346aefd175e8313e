package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, DefaultConfig(), cfg)

	cfg = NewConfig(
		WithLogLevel("debug"),
		WithScanBudget(1024),
		WithScanChunkSize(0),
		WithMaxTickRate(60),
	)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, uint64(1024), cfg.ScanBudget)
	assert.Equal(t, DefaultScanChunkSize, cfg.ScanChunkSize)
	assert.Equal(t, 60.0, cfg.MaxTickRate)
}

func TestConfigMerge(t *testing.T) {
	cfg := Config{ScanBudget: 10}.Merge()
	assert.Equal(t, uint64(10), cfg.ScanBudget)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultScanChunkSize, cfg.ScanChunkSize)
}

func TestErrorDetail(t *testing.T) {
	d := NewErrorDetail("assembly", "too big").WithCode("script_too_large")
	assert.Equal(t, "assembly: too big [script_too_large]", d.Error())

	d.Wrapped = NewErrorDetail("internal", "inner")
	assert.Equal(t, "assembly: too big [script_too_large]: inner", d.Error())

	var nilDetail *ErrorDetail
	assert.Equal(t, "", nilDetail.Error())
}
