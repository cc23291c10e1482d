package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/carelink/carelink/internal/domain/caregroup"
	"github.com/carelink/carelink/internal/domain/elder"
	"github.com/carelink/carelink/internal/domain/identity"
	"github.com/carelink/carelink/internal/domain/medication"
	"github.com/carelink/carelink/internal/domain/report"
	"github.com/carelink/carelink/internal/platform/notification"
)

// reminderWindow matches the reminder cron cadence so each due dose is
// picked up by exactly one sweep.
const reminderWindow = 15 * time.Minute

// weeklySummaryJob builds last week's summary for every group and texts the
// headline numbers to each member.
func weeklySummaryJob(
	groups *caregroup.Service,
	reports *report.Service,
	users *identity.Service,
	notify *notification.Manager,
) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		groupIDs, err := groups.AllGroupIDs(ctx)
		if err != nil {
			return fmt.Errorf("list groups: %w", err)
		}

		weekStart := report.WeekOf(time.Now().AddDate(0, 0, -7))
		for _, groupID := range groupIDs {
			summary, err := reports.WeeklyForGroup(ctx, groupID, weekStart)
			if err != nil {
				log.Error().Err(err).Str("group_id", groupID.String()).Msg("weekly summary generation failed")
				continue
			}
			if len(summary.Elders) == 0 {
				continue
			}

			memberIDs, err := groups.MemberIDs(ctx, groupID)
			if err != nil {
				log.Error().Err(err).Str("group_id", groupID.String()).Msg("weekly summary member lookup failed")
				continue
			}
			phones, err := users.PhonesFor(ctx, memberIDs)
			if err != nil {
				log.Error().Err(err).Str("group_id", groupID.String()).Msg("weekly summary phone lookup failed")
				continue
			}

			for _, ew := range summary.Elders {
				data := map[string]string{
					"elder_name":  ew.ElderName,
					"adherence":   strconv.Itoa(int(ew.AdherenceRate * 100)),
					"alert_count": strconv.Itoa(ew.AlertsRaised),
				}
				for _, phone := range phones {
					if _, err := notify.SendFromTemplate(ctx, "weekly-summary", data, phone, "normal"); err != nil {
						log.Warn().Err(err).Str("group_id", groupID.String()).Msg("weekly summary delivery failed")
					}
				}
			}
		}
		return nil
	}
}

// doseReminderJob texts the care group when a scheduled dose comes due.
func doseReminderJob(
	meds *medication.Service,
	elders *elder.Service,
	groups *caregroup.Service,
	users *identity.Service,
	notify *notification.Manager,
) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		due, err := meds.DueSchedules(ctx, time.Now(), reminderWindow)
		if err != nil {
			return fmt.Errorf("list due schedules: %w", err)
		}

		for _, sw := range due {
			m := sw.Medication
			elderName := elderNameFor(ctx, elders, m)

			memberIDs, err := groups.MemberIDs(ctx, m.GroupID)
			if err != nil {
				log.Error().Err(err).Str("group_id", m.GroupID.String()).Msg("dose reminder member lookup failed")
				continue
			}
			phones, err := users.PhonesFor(ctx, memberIDs)
			if err != nil {
				log.Error().Err(err).Str("group_id", m.GroupID.String()).Msg("dose reminder phone lookup failed")
				continue
			}

			data := map[string]string{
				"elder_name": elderName,
				"medication": m.Name,
				"dosage":     m.Dosage,
				"time":       sw.Schedule.TimeOfDay,
			}
			for _, phone := range phones {
				if _, err := notify.SendFromTemplate(ctx, "dose-reminder", data, phone, "normal"); err != nil {
					log.Warn().Err(err).Str("medication_id", m.ID.String()).Msg("dose reminder delivery failed")
				}
			}
		}
		return nil
	}
}

func elderNameFor(ctx context.Context, elders *elder.Service, m *medication.Medication) string {
	all, err := elders.AllInGroup(ctx, m.GroupID)
	if err != nil {
		return "your elder"
	}
	for _, e := range all {
		if e.ID == m.ElderID {
			return e.FullName()
		}
	}
	return "your elder"
}
