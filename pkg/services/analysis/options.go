package analysis

import (
	"time"

	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/config"
	"github.com/jamelachahbar/skaelvox-vm-evolver/pkg/services/scoring"
)

// OptionsFromSettings maps the loaded configuration onto run options.
func OptionsFromSettings(s *config.Settings) Options {
	return Options{
		Subscription: s.SubscriptionID,
		Workers:      s.Workers,
		LookbackDays: s.LookbackDays,
		VMTimeout:    time.Duration(s.VMTimeoutSeconds) * time.Second,
		BatchTimeout: time.Duration(s.BatchTimeoutMinutes) * time.Minute,
		Policy: scoring.Policy{
			LowCPUThreshold:      s.LowCPUThreshold,
			HighCPUThreshold:     s.HighCPUThreshold,
			ShrinkFactor:         s.ShrinkFactor,
			GrowFactor:           s.GrowFactor,
			GenerationLeap:       s.GenerationLeap,
			AllowOlderThanTarget: s.AllowOlderThanTarget,
			SameFamilyOnly:       s.SameFamilyOnly,
			ExcludeBurstable:     s.ExcludeBurstable,
			CheckDisks:           s.CheckDisks,
			CheckNetwork:         s.CheckNetwork,
			Weights: scoring.Weights{
				Price:       s.WeightPrice,
				Performance: s.WeightPerformance,
				Generation:  s.WeightGeneration,
				Features:    s.WeightFeatures,
			},
		},
	}
}
