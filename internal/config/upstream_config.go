package config

import "time"

// UpstreamConfig describes the external lottery-data provider.
type UpstreamConfig interface {
	GetLotteryAPIURL() string
	GetLotteryAPITimeout() time.Duration
}

type Upstream struct{}

var _ UpstreamConfig = Upstream{}

func (Upstream) GetLotteryAPIURL() string {
	return GetEnv("LOTTERY_API_URL", "http://localhost:9090")
}

func (Upstream) GetLotteryAPITimeout() time.Duration {
	return durationEnv("LOTTERY_API_TIMEOUT", 10*time.Second)
}
