package statistics

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/vibestack/vibestack/app/models"
	"github.com/vibestack/vibestack/internal/pkg/cache"
	"github.com/vibestack/vibestack/internal/pkg/database"
)

const (
	CacheKeyContentTotal = "statistics:content:total"
	CacheKeyContentDaily = "statistics:content:daily:%s" // Format with date YYYY-MM-DD
	CacheKeyUsers        = "statistics:users:total"
	CacheExpiration      = 30 * time.Minute
)

// StatisticsData holds the counters shown on the landing page
type StatisticsData struct {
	TodayContent int
	TotalUsers   int
	TotalContent int
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache reports whether the cached counters are stale
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cached counters when they are stale
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Error updating statistics cache: %v", err)
		} else {
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next UpdateCacheIfNeeded to refresh
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache updates all statistics in the cache
func UpdateStatisticsCache() error {
	db := database.GetDB()

	var totalContent int64
	if err := db.Model(&models.Content{}).Where("published = ?", true).Count(&totalContent).Error; err != nil {
		log.Printf("Error counting published content: %v", err)
		return err
	}

	var todayContent int64
	today := time.Now().Format("2006-01-02")
	todayStart, _ := time.Parse("2006-01-02", today)
	todayEnd := todayStart.Add(24 * time.Hour)

	if err := db.Model(&models.Content{}).
		Where("published = ? AND created_at BETWEEN ? AND ?", true, todayStart, todayEnd).
		Count(&todayContent).Error; err != nil {
		log.Printf("Error counting today's content: %v", err)
		return err
	}

	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		log.Printf("Error counting total users: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyContentTotal, strconv.FormatInt(totalContent, 10), CacheExpiration); err != nil {
		return err
	}

	dailyKey := fmt.Sprintf(CacheKeyContentDaily, today)
	if err := cache.Set(dailyKey, strconv.FormatInt(todayContent, 10), CacheExpiration); err != nil {
		return err
	}

	if err := cache.Set(CacheKeyUsers, strconv.FormatInt(totalUsers, 10), CacheExpiration); err != nil {
		return err
	}

	return nil
}

// GetTotalContent returns the published content count from cache or database
func GetTotalContent() int {
	val, err := cache.Get(CacheKeyContentTotal)
	if err != nil {
		var count int64
		db := database.GetDB()
		if err := db.Model(&models.Content{}).Where("published = ?", true).Count(&count).Error; err != nil {
			log.Printf("Error counting published content: %v", err)
			return 0
		}

		if err := cache.Set(CacheKeyContentTotal, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching content count: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetTodayContent returns the number of items published today from cache or database
func GetTodayContent() int {
	today := time.Now().Format("2006-01-02")
	dailyKey := fmt.Sprintf(CacheKeyContentDaily, today)

	val, err := cache.Get(dailyKey)
	if err != nil {
		var count int64
		db := database.GetDB()
		todayStart, _ := time.Parse("2006-01-02", today)
		todayEnd := todayStart.Add(24 * time.Hour)

		if err := db.Model(&models.Content{}).
			Where("published = ? AND created_at BETWEEN ? AND ?", true, todayStart, todayEnd).
			Count(&count).Error; err != nil {
			log.Printf("Error counting today's content: %v", err)
			return 0
		}

		if err := cache.Set(dailyKey, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching today's content count: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetTotalUsers returns the total number of users from cache or database
func GetTotalUsers() int {
	val, err := cache.Get(CacheKeyUsers)
	if err != nil {
		var count int64
		db := database.GetDB()
		if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
			log.Printf("Error counting total users: %v", err)
			return 0
		}

		if err := cache.Set(CacheKeyUsers, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching user count: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetStatisticsData returns all landing page counters
func GetStatisticsData() StatisticsData {
	UpdateCacheIfNeeded()

	return StatisticsData{
		TodayContent: GetTodayContent(),
		TotalUsers:   GetTotalUsers(),
		TotalContent: GetTotalContent(),
	}
}
