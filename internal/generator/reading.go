// Package generator 合成传感器读数（有界随机游走）。
package generator

import (
	"math"
	"math/rand"
	"time"

	"incident-board/internal/models"
)

// 随机游走参数：首个读数的种子区间 + 相邻读数的最大漂移
const (
	seedTempMin  = 68.0
	seedTempMax  = 80.0
	seedPressMin = 18.0
	seedPressMax = 24.0
	tempDrift    = 2.0
	pressDrift   = 1.0
)

// Generator 读数生成器。rand 源可注入，便于测试固定种子。
type Generator struct {
	rng *rand.Rand
}

func New() *Generator {
	return &Generator{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewWithSource 使用指定随机源（测试用）
func NewWithSource(src rand.Source) *Generator {
	return &Generator{rng: rand.New(src)}
}

// Next 由上一条读数推导下一条：
// 无 prev 时独立播种；有 prev 时温度 ±2（1 位小数）、压力 ±1（2 位小数）。
func (g *Generator) Next(prev *models.Reading, now time.Time) models.Reading {
	if prev == nil {
		return models.Reading{
			Timestamp:   now.UTC().Format(time.RFC3339),
			Temperature: round1(seedTempMin + g.rng.Float64()*(seedTempMax-seedTempMin)),
			Pressure:    round2(seedPressMin + g.rng.Float64()*(seedPressMax-seedPressMin)),
		}
	}
	return models.Reading{
		Timestamp:   now.UTC().Format(time.RFC3339),
		Temperature: round1(prev.Temperature + (g.rng.Float64()*2-1)*tempDrift),
		Pressure:    round2(prev.Pressure + (g.rng.Float64()*2-1)*pressDrift),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
