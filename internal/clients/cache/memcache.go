package cache

import (
	"strconv"

	"github.com/pkg/errors"

	"go.uber.org/zap"
	"max.ks1230/expense-tracker/internal/logger"

	"github.com/bradfitz/gomemcache/memcache"
)

const floatBits = 64

type MemcacheClient struct {
	client *memcache.Client
	ttl    int32
}

type config interface {
	Hosts() []string
	RateTTL() int32
}

func NewMemcache(config config) (*MemcacheClient, error) {
	logger.Info("memcached hosts", zap.Strings("hosts", config.Hosts()))
	mc := memcache.New(config.Hosts()...)
	return &MemcacheClient{client: mc, ttl: config.RateTTL()}, mc.Ping()
}

func formatKey(source, asOf string) string {
	return source + ":" + asOf
}

func (mc *MemcacheClient) CacheRate(source, asOf string, rate float64) error {
	return mc.client.Set(&memcache.Item{
		Key:        formatKey(source, asOf),
		Value:      []byte(strconv.FormatFloat(rate, 'g', -1, floatBits)),
		Expiration: mc.ttl,
	})
}

func (mc *MemcacheClient) GetRate(source, asOf string) (float64, bool, error) {
	item, err := mc.client.Get(formatKey(source, asOf))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	rate, err := strconv.ParseFloat(string(item.Value), floatBits)
	if err != nil {
		return 0, false, errors.Wrap(err, "corrupt cached rate")
	}
	return rate, true, nil
}
