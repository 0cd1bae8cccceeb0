// controllers/report.go
package controllers

import (
	"net/http"
	"time"

	"cliently-backend/config"
	"cliently-backend/models"
	"cliently-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReportController handles all reporting functions
type ReportController struct{}

// AnalyticsSummary represents the Analytics data
type AnalyticsSummary struct {
	NewCustomersThisMonth int                  `json:"newCustomersThisMonth"`
	CustomerGrowth        float64              `json:"customerGrowth"`
	WonThisMonth          int                  `json:"wonThisMonth"`
	LostThisMonth         int                  `json:"lostThisMonth"`
	WinRate               float64              `json:"winRate"`
	Pipeline              []StageSummary       `json:"pipeline"`
	AppointmentsPerWeek   []WeeklyAppointments `json:"appointmentsPerWeek"`
	ReminderSuccessRate   float64              `json:"reminderSuccessRate"`
	QuickStats            QuickStatistics      `json:"quickStats"`
}

type StageSummary struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

type WeeklyAppointments struct {
	WeekStart time.Time `json:"weekStart"`
	Count     int       `json:"count"`
}

type QuickStatistics struct {
	TotalCustomers       int     `json:"totalCustomers"`
	TotalAppointments    int     `json:"totalAppointments"`
	UpcomingAppointments int     `json:"upcomingAppointments"`
	AvgAppointmentsWeek  float64 `json:"avgAppointmentsPerWeek"`
}

// GetReportAnalytics returns the complete analytics summary
func (rc *ReportController) GetReportAnalytics(c *gin.Context) {
	businessID, exists := c.Get("businessId")
	if !exists {
		utils.RespondWithError(c, http.StatusUnauthorized, "Business ID not found in context")
		return
	}

	businessUUID, err := uuid.Parse(businessID.(string))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Invalid business ID format")
		return
	}

	now := time.Now()
	currentYear, currentMonth, _ := now.Date()
	firstOfMonth := time.Date(currentYear, currentMonth, 1, 0, 0, 0, 0, now.Location())
	firstOfLastMonth := firstOfMonth.AddDate(0, -1, 0)

	newThisMonth, err := rc.countNewCustomers(businessUUID, firstOfMonth, now)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to count new customers")
		return
	}

	newLastMonth, err := rc.countNewCustomers(businessUUID, firstOfLastMonth, firstOfMonth)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to count last month's customers")
		return
	}

	wonThisMonth, err := rc.countStageMoves(businessUUID, models.StageWon, firstOfMonth)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to count won customers")
		return
	}

	lostThisMonth, err := rc.countStageMoves(businessUUID, models.StageLost, firstOfMonth)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to count lost customers")
		return
	}

	pipeline, err := rc.getPipelineSummary(businessUUID)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get pipeline summary")
		return
	}

	totalWon, totalLost := 0, 0
	for _, s := range pipeline {
		switch s.Stage {
		case models.StageWon:
			totalWon = s.Count
		case models.StageLost:
			totalLost = s.Count
		}
	}

	weekly, err := rc.getWeeklyAppointments(businessUUID, 8)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get weekly appointments")
		return
	}

	reminderRate, err := rc.getReminderSuccessRate(businessUUID, now.AddDate(0, 0, -30))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get reminder success rate")
		return
	}

	quickStats, err := rc.getQuickStatistics(businessUUID, weekly)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get quick statistics")
		return
	}

	summary := AnalyticsSummary{
		NewCustomersThisMonth: newThisMonth,
		CustomerGrowth:        rc.calculateGrowthPercentage(float64(newThisMonth), float64(newLastMonth)),
		WonThisMonth:          wonThisMonth,
		LostThisMonth:         lostThisMonth,
		WinRate:               rc.calculateWinRate(totalWon, totalLost),
		Pipeline:              pipeline,
		AppointmentsPerWeek:   weekly,
		ReminderSuccessRate:   reminderRate,
		QuickStats:            quickStats,
	}

	c.JSON(http.StatusOK, summary)
}

// Helper functions for reports

func (rc *ReportController) countNewCustomers(businessID uuid.UUID, start, end time.Time) (int, error) {
	var count int64
	err := config.DB.Model(&models.Customer{}).
		Where("business_id = ? AND created_at >= ? AND created_at < ? AND deleted_at IS NULL", businessID, start, end).
		Count(&count).Error
	return int(count), err
}

// countStageMoves approximates this month's stage outcomes: the pipeline
// keeps no transition history, so a customer sitting in the stage with a
// recent update counts as having moved there.
func (rc *ReportController) countStageMoves(businessID uuid.UUID, stage string, since time.Time) (int, error) {
	var count int64
	err := config.DB.Model(&models.Customer{}).
		Where("business_id = ? AND pipeline_stage = ? AND updated_at >= ? AND deleted_at IS NULL", businessID, stage, since).
		Count(&count).Error
	return int(count), err
}

func (rc *ReportController) getPipelineSummary(businessID uuid.UUID) ([]StageSummary, error) {
	type stageRow struct {
		PipelineStage string
		Count         int
	}
	var rows []stageRow
	err := config.DB.Model(&models.Customer{}).
		Select("pipeline_stage, COUNT(*) as count").
		Where("business_id = ? AND deleted_at IS NULL", businessID).
		Group("pipeline_stage").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.PipelineStage] = row.Count
	}

	summary := make([]StageSummary, 0, len(models.PipelineStages))
	for _, stage := range models.PipelineStages {
		summary = append(summary, StageSummary{Stage: stage, Count: counts[stage]})
	}
	return summary, nil
}

func (rc *ReportController) getWeeklyAppointments(businessID uuid.UUID, weeks int) ([]WeeklyAppointments, error) {
	since := time.Now().AddDate(0, 0, -7*weeks)

	var rows []WeeklyAppointments
	err := config.DB.Raw(`
		SELECT DATE_TRUNC('week', start_time) as week_start, COUNT(*) as count
		FROM appointments
		WHERE business_id = ? AND start_time >= ?
		GROUP BY DATE_TRUNC('week', start_time)
		ORDER BY week_start
	`, businessID, since).Scan(&rows).Error
	return rows, err
}

func (rc *ReportController) getReminderSuccessRate(businessID uuid.UUID, since time.Time) (float64, error) {
	var sent, failed int64
	if err := config.DB.Model(&models.ReminderLog{}).
		Where("business_id = ? AND status = ? AND sent_at >= ?", businessID, models.ReminderSent, since).
		Count(&sent).Error; err != nil {
		return 0, err
	}
	if err := config.DB.Model(&models.ReminderLog{}).
		Where("business_id = ? AND status = ? AND sent_at >= ?", businessID, models.ReminderFailed, since).
		Count(&failed).Error; err != nil {
		return 0, err
	}

	total := sent + failed
	if total == 0 {
		return 0, nil
	}
	return float64(sent) / float64(total) * 100, nil
}

func (rc *ReportController) calculateGrowthPercentage(current, previous float64) float64 {
	if previous == 0 {
		if current == 0 {
			return 0
		}
		return 100
	}
	return ((current - previous) / previous) * 100
}

func (rc *ReportController) calculateWinRate(won, lost int) float64 {
	closed := won + lost
	if closed == 0 {
		return 0
	}
	return float64(won) / float64(closed) * 100
}

func (rc *ReportController) getQuickStatistics(businessID uuid.UUID, weekly []WeeklyAppointments) (QuickStatistics, error) {
	var stats QuickStatistics

	var totalCustomers int64
	if err := config.DB.Model(&models.Customer{}).
		Where("business_id = ? AND deleted_at IS NULL", businessID).
		Count(&totalCustomers).Error; err != nil {
		return stats, err
	}
	stats.TotalCustomers = int(totalCustomers)

	var totalAppointments int64
	if err := config.DB.Model(&models.Appointment{}).
		Where("business_id = ?", businessID).
		Count(&totalAppointments).Error; err != nil {
		return stats, err
	}
	stats.TotalAppointments = int(totalAppointments)

	var upcoming int64
	if err := config.DB.Model(&models.Appointment{}).
		Where("business_id = ? AND start_time >= ?", businessID, time.Now()).
		Count(&upcoming).Error; err != nil {
		return stats, err
	}
	stats.UpcomingAppointments = int(upcoming)

	if len(weekly) > 0 {
		total := 0
		for _, w := range weekly {
			total += w.Count
		}
		stats.AvgAppointmentsWeek = float64(total) / float64(len(weekly))
	}

	return stats, nil
}
