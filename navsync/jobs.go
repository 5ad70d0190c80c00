package navsync

import (
	"context"
	"fmt"
	"time"

	"github.com/reugn/go-quartz/quartz"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mellivora/jobs"
	"mellivora/store"
)

var (
	syncDB      *gorm.DB
	syncBaseURL string
)

// Register wires the sync jobs into the job registry. The handle and source
// URL are captured here once; deserialized jobs get them back through the
// registry suppliers.
func Register(db *gorm.DB, baseURL string) {
	syncDB = db
	syncBaseURL = baseURL
	jobs.RegisterJob("ProfileSync", func() jobs.Job {
		return &ProfileSync{}
	})
	jobs.RegisterJob("NavSync", func() jobs.Job {
		return &NavSync{}
	})
}

// ProfileSync crawls the fund listing, upserts every profile, and fans out
// one NavSync job per fund with staggered triggers.
type ProfileSync struct {
}

func (j *ProfileSync) Execute(ctx context.Context) error {
	source := NewNavSource(syncBaseURL)
	profiles, err := source.CrawlProfiles()
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		syncDB.Save(&store.SyncEvent{
			Data: store.JSONB{"job": "ProfileSync", "error": "No fund profiles found"},
		})
		return nil
	}

	for _, profile := range profiles {
		err := syncDB.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "short_name", "fund_manager", "risk_level", "fund_type", "update_time",
			}),
		}).Create(profile).Error
		if err != nil {
			return err
		}
	}

	for idx, profile := range profiles {
		job := &NavSync{Code: profile.Code}
		key := fmt.Sprintf("%s-%s", profile.Code, time.Now().Format(time.DateOnly))
		jobDetail := quartz.NewJobDetailWithOptions(
			job, quartz.NewJobKeyWithGroup(key, "NavSync"),
			&quartz.JobDetailOptions{
				MaxRetries:    10,
				RetryInterval: time.Minute * 5,
				Replace:       false,
				Suspended:     false,
			},
		)
		err = jobs.Scheduler.ScheduleJob(jobDetail, quartz.NewRunOnceTrigger(time.Second*time.Duration(idx)))
		if err != nil {
			return err
		}
	}

	return nil
}

func (j *ProfileSync) SetDescription(s string) {
}

func (j *ProfileSync) Description() string {
	return ""
}

// NavSync crawls one fund's NAV history and upserts the observations. The
// fund code doubles as the serialized job state.
type NavSync struct {
	Code string
}

func (m *NavSync) Execute(ctx context.Context) error {
	var profile store.FundProfile
	if err := syncDB.Where("code = ?", m.Code).First(&profile).Error; err != nil {
		return err
	}

	source := NewNavSource(syncBaseURL)
	navs, err := source.CrawlNavHistory(&profile)
	if err != nil {
		return err
	}
	if len(navs) == 0 {
		syncDB.Save(&store.SyncEvent{
			Data: store.JSONB{"job": "NavSync", "code": m.Code, "error": "No NAVs found"},
		})
		return nil
	}

	// Re-crawls overlap with existing history; the composite key plus
	// DoNothing keeps old observations immutable.
	if err := syncDB.Clauses(clause.OnConflict{
		DoNothing: true,
	}).Create(&navs).Error; err != nil {
		return err
	}

	if profile.NavStartDate == nil {
		earliest := navs[0].NavDate
		for _, nav := range navs {
			if nav.NavDate.Before(earliest) {
				earliest = nav.NavDate
			}
		}
		if err := syncDB.Model(&profile).Update("nav_start_date", earliest).Error; err != nil {
			return err
		}
	}

	return nil
}

func (m *NavSync) SetDescription(s string) {
	m.Code = s
}

func (m *NavSync) Description() string {
	return m.Code
}
