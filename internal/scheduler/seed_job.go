package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"box-schedule/backend/config"
	"box-schedule/backend/internal/dto"
	"box-schedule/backend/internal/service"
	"box-schedule/backend/pkg/clock"
	"box-schedule/backend/pkg/redis"
)

const (
	seedLockName = "seed_sessions"
	// seedRunTimeout 单次生成的最长执行时间
	seedRunTimeout = 4 * time.Minute
)

// locker 分布式锁（由 pkg/redis.Client 实现）
type locker interface {
	AcquireLock(ctx context.Context, name, token string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, name, token string) error
}

// SeedJob 按 cron 定期生成未来窗口内的课程实例
// 多副本部署时通过 Redis 锁保证同一时刻只有一个副本执行
type SeedJob struct {
	cfg    config.SeederConfig
	seeder service.SeederService
	clk    clock.Clock
	lock   locker
	logger *zap.Logger

	cron *cron.Cron
}

// NewSeedJob 创建 SeedJob；rdb 为 nil 时不加锁运行（降级）
func NewSeedJob(cfg config.SeederConfig, seeder service.SeederService, clk clock.Clock, rdb *redis.Client, logger *zap.Logger) *SeedJob {
	j := &SeedJob{
		cfg:    cfg,
		seeder: seeder,
		clk:    clk,
		logger: logger,
	}
	if rdb != nil {
		j.lock = rdb
	}
	return j
}

// Start 注册并启动 cron；seeder.enabled=false 时不做任何事
func (j *SeedJob) Start() error {
	if !j.cfg.Enabled {
		j.logger.Info("课程生成定时任务已禁用")
		return nil
	}

	c := cron.New(
		cron.WithLocation(j.clk.Location()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	if _, err := c.AddFunc(j.cfg.Cron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), seedRunTimeout)
		defer cancel()
		_ = j.Run(ctx)
	}); err != nil {
		return err
	}

	j.cron = c
	c.Start()
	j.logger.Info("课程生成定时任务已启动",
		zap.String("cron", j.cfg.Cron),
		zap.Int("window_days", j.cfg.WindowDays),
	)
	return nil
}

// Stop 停止 cron 并等待正在执行的任务结束
func (j *SeedJob) Stop() {
	if j.cron == nil {
		return
	}
	<-j.cron.Stop().Done()
}

// Run 执行一次生成：从场馆今天起 window_days 天
func (j *SeedJob) Run(ctx context.Context) error {
	if j.lock != nil {
		token := uuid.NewString()
		ok, err := j.lock.AcquireLock(ctx, seedLockName, token, j.cfg.LockTTL)
		switch {
		case err != nil:
			j.logger.Warn("获取生成锁失败，降级为无锁执行", zap.Error(err))
		case !ok:
			j.logger.Info("其他副本正在生成课程，跳过本次执行")
			return nil
		default:
			defer func() {
				if err := j.lock.ReleaseLock(context.Background(), seedLockName, token); err != nil {
					j.logger.Warn("释放生成锁失败", zap.Error(err))
				}
			}()
		}
	} else {
		j.logger.Warn("Redis 不可用，课程生成无锁执行")
	}

	req := &dto.SeedSessionsRequest{
		StartDate: j.clk.Today().Format(clock.DateLayout),
		Days:      j.cfg.WindowDays,
	}
	// 定时任务无操作人，审计字段留空
	result, err := j.seeder.SeedSessions(ctx, req, "")
	if err != nil {
		j.logger.Error("定时生成课程失败", zap.String("start_date", req.StartDate), zap.Error(err))
		return err
	}

	j.logger.Info("定时生成课程完成",
		zap.String("start_date", req.StartDate),
		zap.Int("days", req.Days),
		zap.Int("created_or_updated", result.CreatedOrUpdated),
	)
	return nil
}
