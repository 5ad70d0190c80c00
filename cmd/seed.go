/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gorm.io/gorm/clause"

	"mellivora/store"
)

type seedFund struct {
	code    string
	name    string
	manager string
	typ     string
	risk    int16
	baseNav float64
}

// Sample funds for local development. Managers and codes come from public
// fund listings; the NAV series are synthetic.
var seedFunds = []seedFund{
	{code: "000001", name: "华夏成长混合", manager: "", typ: "混合型", risk: 3, baseNav: 1.06},
	{code: "000961", name: "天弘沪深300ETF联接A", manager: "杨超", typ: "指数型", risk: 3, baseNav: 1.34},
	{code: "005827", name: "易方达蓝筹精选混合", manager: "张坤", typ: "混合型", risk: 4, baseNav: 1.82},
	{code: "110011", name: "易方达中小盘混合", manager: "张坤", typ: "混合型", risk: 4, baseNav: 5.67},
	{code: "161725", name: "招商中证白酒指数", manager: "侯昊", typ: "指数型", risk: 4, baseNav: 1.21},
	{code: "519736", name: "交银新成长混合", manager: "王崇", typ: "混合型", risk: 3, baseNav: 2.12},
}

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load sample funds with synthetic NAV history",
	Long: `Load sample funds with synthetic NAV history. Generates roughly 400
days of weekday observations per fund so the returns endpoints have data to
work with locally.`,
	Run: func(cmd *cobra.Command, args []string) {
		st := openStore()
		db := st.DB()
		rng := rand.New(rand.NewSource(42))

		for _, seed := range seedFunds {
			startDate := time.Now().AddDate(0, 0, -400).Truncate(24 * time.Hour)
			profile := &store.FundProfile{
				Code:         seed.code,
				Name:         seed.name,
				FundType:     seed.typ,
				RiskLevel:    seed.risk,
				NavFrequency: "D",
				NavStartDate: &startDate,
			}
			if seed.manager != "" {
				profile.FundManager = lo.ToPtr(seed.manager)
			}
			if err := db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "code"}},
				DoNothing: true,
			}).Create(profile).Error; err != nil {
				log.Error().Err(err).Str("code", seed.code).Msg("Failed to seed fund profile")
				continue
			}

			navs := generateNavSeries(profile.ID, startDate, seed.baseNav, rng)
			if err := db.Clauses(clause.OnConflict{
				DoNothing: true,
			}).Create(&navs).Error; err != nil {
				log.Error().Err(err).Str("code", seed.code).Msg("Failed to seed NAV history")
				continue
			}
			log.Info().Str("code", seed.code).Int("navs", len(navs)).Msg("Seeded fund")
		}
	},
}

// generateNavSeries produces a weekday-only random walk so the data has the
// same gaps a real trading calendar does.
func generateNavSeries(fundID uint64, startDate time.Time, baseNav float64, rng *rand.Rand) []*store.FundNav {
	navs := make([]*store.FundNav, 0, 300)
	nav := baseNav
	accumulated := baseNav

	for d := startDate; d.Before(time.Now()); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		change := (rng.Float64() - 0.49) * 0.02
		nav *= 1 + change
		accumulated *= 1 + change
		navs = append(navs, &store.FundNav{
			FundID:         fundID,
			NavDate:        d,
			UnitNav:        decimal.NewFromFloat(nav).Round(4),
			AccumulatedNav: decimal.NewFromFloat(accumulated).Round(4),
		})
	}
	return navs
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
