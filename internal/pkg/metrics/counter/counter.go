// Package counter buffers high-frequency campaign counters in Redis and
// flushes them to the database in batches.
package counter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/fundfox/fundfox/internal/pkg/cache"
	"github.com/fundfox/fundfox/internal/pkg/database"
)

const (
	campaignViewsKey  = "campaign:counters:views"
	campaignSharesKey = "campaign:counters:shares"
)

// AddCampaignView increments the pending view counter for a campaign in Redis
func AddCampaignView(ctx context.Context, campaignID uint) error {
	field := strconv.FormatUint(uint64(campaignID), 10)
	return cache.GetClient().HIncrBy(ctx, campaignViewsKey, field, 1).Err()
}

// AddCampaignShare increments the pending share counter for a campaign in Redis
func AddCampaignShare(ctx context.Context, campaignID uint) error {
	field := strconv.FormatUint(uint64(campaignID), 10)
	return cache.GetClient().HIncrBy(ctx, campaignSharesKey, field, 1).Err()
}

// FlushAll flushes views and shares to the database
func FlushAll(ctx context.Context) error {
	db := database.GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	if err := flushHashToTable(ctx, db, campaignViewsKey, "campaigns", "view_count"); err != nil {
		return err
	}
	return flushHashToTable(ctx, db, campaignSharesKey, "campaigns", "share_count")
}

// flushHashToTable drains a Redis hash and applies batched increments. The
// hash is renamed to a temporary key first so increments arriving during the
// flush land in a fresh hash.
func flushHashToTable(ctx context.Context, db *gorm.DB, redisKey, table, column string) error {
	rdb := cache.GetClient()

	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := rdb.Rename(ctx, redisKey, tmpKey).Err(); err != nil {
		if err == redis.Nil || strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		return err
	}
	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}

	type pair struct {
		id  uint64
		inc int64
	}
	pairs := make([]pair, 0, len(data))
	for k, v := range data {
		id, perr := strconv.ParseUint(k, 10, 64)
		if perr != nil {
			continue
		}
		inc, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil || inc == 0 {
			continue
		}
		pairs = append(pairs, pair{id: id, inc: inc})
	}
	if len(pairs) == 0 {
		return nil
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	// UPDATE campaigns SET <column> = <column> + CASE id WHEN ? THEN ? ... END WHERE id IN (...)
	var builder strings.Builder
	args := make([]interface{}, 0, len(pairs)*3)
	fmt.Fprintf(&builder, "UPDATE %s SET %s = %s + CASE id", table, column, column)
	for _, p := range pairs {
		builder.WriteString(" WHEN ? THEN ?")
		args = append(args, p.id, p.inc)
	}
	builder.WriteString(" END WHERE id IN (")
	for i, p := range pairs {
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString("?")
		args = append(args, p.id)
	}
	builder.WriteString(")")

	return db.WithContext(ctx).Exec(builder.String(), args...).Error
}
