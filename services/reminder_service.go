// services/reminder_service.go
package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"cliently-backend/models"
	"cliently-backend/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const (
	// Reminders target appointments starting 24 hours out, give or take
	// half the sweep cadence so consecutive sweeps tile the timeline.
	reminderLead       = 24 * time.Hour
	reminderHalfWindow = 30 * time.Minute

	sweepSchedule = "*/30 * * * *"

	// The lease expires before the next tick, so a crashed holder never
	// blocks more than one cycle.
	sweepLockKey = "reminders:sweep:lock"
	sweepLockTTL = 25 * time.Minute
)

// Dispatch outcomes for a single recipient.
const (
	dispatchSent    = "sent"
	dispatchFailed  = "failed"
	dispatchSkipped = "skipped"
)

// ReminderWindow returns the inclusive [start, end] range of appointment
// start times due for a reminder when a sweep runs at now.
func ReminderWindow(now time.Time) (time.Time, time.Time) {
	target := now.Add(reminderLead)
	return target.Add(-reminderHalfWindow), target.Add(reminderHalfWindow)
}

// AppointmentDue reports whether an appointment starting at startTime falls
// inside the reminder window for a sweep at now. Both boundaries count.
func AppointmentDue(startTime, now time.Time) bool {
	windowStart, windowEnd := ReminderWindow(now)
	return !startTime.Before(windowStart) && !startTime.After(windowEnd)
}

// ShouldNotifyCustomer gates the customer-facing text: the customer needs a
// phone on file and a confirmed booking stage. The owner reminder is never
// gated this way.
func ShouldNotifyCustomer(c models.Customer) bool {
	return c.Phone != "" && c.PipelineStage == models.StageAppointmentScheduled
}

// OwnerReminderMessage builds the text sent to the business owner.
func OwnerReminderMessage(c models.Customer, date, clock string) string {
	address := c.Address
	if address == "" {
		address = "no address on file"
	}
	return fmt.Sprintf("Reminder: appointment with %s on %s at %s. Address: %s", c.FullName, date, clock, address)
}

// CustomerReminderMessage builds the text sent to the customer.
func CustomerReminderMessage(businessName, date, clock string) string {
	return fmt.Sprintf("Hi! This is a reminder from %s about your appointment on %s at %s. Reply to this number with any questions.", businessName, date, clock)
}

type ReminderService struct {
	db      *gorm.DB
	sender  SMSSender
	redis   *redis.Client
	logger  *zap.Logger
	limiter *rate.Limiter
	cron    *cron.Cron
	running atomic.Bool
}

func NewReminderService(db *gorm.DB, sender SMSSender, redisClient *redis.Client) *ReminderService {
	return &ReminderService{
		db:     db,
		sender: sender,
		redis:  redisClient,
		logger: zap.L(),
		// One appointment's sends per second keeps the provider happy
		// without stalling small sweeps.
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// StartScheduler runs one sweep immediately, then one every 30 minutes.
func (s *ReminderService) StartScheduler() {
	c := cron.New()
	if _, err := c.AddFunc(sweepSchedule, s.RunSweep); err != nil {
		s.logger.Fatal("Invalid sweep schedule", zap.Error(err))
	}

	go s.RunSweep()

	c.Start()
	s.cron = c
	s.logger.Info("Reminder scheduler started", zap.String("schedule", sweepSchedule))
}

// StopScheduler halts future ticks. A sweep already running finishes.
func (s *ReminderService) StopScheduler() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Running reports whether a sweep is in flight right now.
func (s *ReminderService) Running() bool {
	return s.running.Load()
}

// RunSweep processes every appointment currently due for a reminder. A tick
// that fires while the previous sweep is still running is skipped, never
// queued, so slow cycles cannot pile up.
func (s *ReminderService) RunSweep() {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("Reminder sweep still running, skipping this tick")
		return
	}
	defer s.running.Store(false)

	ctx := context.Background()
	release, acquired := s.acquireLease(ctx)
	if !acquired {
		s.logger.Info("Reminder sweep lease held by another instance, skipping this tick")
		return
	}
	defer release()

	s.ProcessDueReminders(ctx, time.Now())
}

// acquireLease takes the cross-instance sweep lock when Redis is available.
// Without Redis the in-process guard in RunSweep is the only protection.
func (s *ReminderService) acquireLease(ctx context.Context) (func(), bool) {
	if s.redis == nil {
		return func() {}, true
	}

	token := uuid.NewString()
	ok, err := s.redis.SetNX(ctx, sweepLockKey, token, sweepLockTTL).Result()
	if err != nil {
		s.logger.Warn("Sweep lease check failed, proceeding without it", zap.Error(err))
		return func() {}, true
	}
	if !ok {
		return nil, false
	}

	return func() {
		// Only release our own token in case the lease expired mid-sweep.
		val, err := s.redis.Get(ctx, sweepLockKey).Result()
		if err == nil && val == token {
			if err := s.redis.Del(ctx, sweepLockKey).Err(); err != nil {
				s.logger.Warn("Failed to release sweep lease", zap.Error(err))
			}
		}
	}, true
}

// ProcessDueReminders finds appointments inside the reminder window and
// texts the owner and, when eligible, the customer for each one. Sends are
// strictly sequential in start-time order.
func (s *ReminderService) ProcessDueReminders(ctx context.Context, now time.Time) {
	if !s.sender.Configured() {
		s.logger.Error("Reminder sweep aborted, SMS provider is not configured")
		return
	}

	windowStart, windowEnd := ReminderWindow(now)
	s.logger.Info("Starting reminder sweep",
		zap.Time("windowStart", windowStart),
		zap.Time("windowEnd", windowEnd))

	var appointments []models.Appointment
	if err := s.db.Preload("Customer").
		Where("start_time BETWEEN ? AND ?", windowStart, windowEnd).
		Order("start_time").
		Find(&appointments).Error; err != nil {
		s.logger.Error("Failed to fetch due appointments", zap.Error(err))
		return
	}

	if len(appointments) == 0 {
		s.logger.Info("Reminder sweep found nothing due")
		return
	}

	businesses := make(map[uuid.UUID]*models.Business)
	sent, failed := 0, 0

	for _, appointment := range appointments {
		if err := s.limiter.Wait(ctx); err != nil {
			s.logger.Error("Reminder sweep interrupted", zap.Error(err))
			return
		}

		business, err := s.businessFor(appointment.BusinessID, businesses)
		if err != nil {
			s.logger.Error("Failed to load business for appointment",
				zap.String("appointmentId", appointment.ID.String()),
				zap.Error(err))
			failed++
			continue
		}

		ds, df := s.dispatchAppointment(appointment, business)
		sent += ds
		failed += df
	}

	s.logger.Info("Reminder sweep completed",
		zap.Int("appointments", len(appointments)),
		zap.Int("sent", sent),
		zap.Int("failed", failed))
}

func (s *ReminderService) businessFor(id uuid.UUID, cache map[uuid.UUID]*models.Business) (*models.Business, error) {
	if b, ok := cache[id]; ok {
		return b, nil
	}

	var b models.Business
	if err := s.db.First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	cache[id] = &b
	return &b, nil
}

// dispatchAppointment sends the owner and customer reminders for one
// appointment. Each recipient is isolated: a failure for one never blocks
// the other, or later appointments.
func (s *ReminderService) dispatchAppointment(appointment models.Appointment, business *models.Business) (sent, failed int) {
	if !business.SMSRemindersEnabled {
		s.logger.Info("SMS reminders disabled for business, skipping appointment",
			zap.String("businessId", business.ID.String()),
			zap.String("appointmentId", appointment.ID.String()))
		return 0, 0
	}

	loc := utils.LocationOrUTC(business.Timezone)
	date := utils.FormatDate(appointment.StartTime, loc)
	clock := utils.FormatClock(appointment.StartTime, loc)
	customer := appointment.Customer

	// The owner hears about every appointment, before the customer does.
	if business.NotificationPhone == "" {
		s.logger.Error("Business has no notification phone configured, skipping owner reminder",
			zap.String("businessId", business.ID.String()),
			zap.String("appointmentId", appointment.ID.String()))
	} else {
		message := OwnerReminderMessage(customer, date, clock)
		switch s.sendReminder(appointment, models.RecipientOwner, business.NotificationPhone, message) {
		case dispatchSent:
			sent++
		case dispatchFailed:
			failed++
		}
	}

	if ShouldNotifyCustomer(customer) {
		message := CustomerReminderMessage(business.Name, date, clock)
		switch s.sendReminder(appointment, models.RecipientCustomer, customer.Phone, message) {
		case dispatchSent:
			sent++
		case dispatchFailed:
			failed++
		}
	}

	return sent, failed
}

// alreadySent reports whether a sent reminder row exists for this
// appointment and recipient. A failed dedup check errs toward sending: a
// duplicate text beats a silently dropped one.
func (s *ReminderService) alreadySent(appointmentID uuid.UUID, recipient string) bool {
	var count int64
	if err := s.db.Model(&models.ReminderLog{}).
		Where("appointment_id = ? AND recipient = ? AND status = ?", appointmentID, recipient, models.ReminderSent).
		Count(&count).Error; err != nil {
		s.logger.Warn("Reminder dedup check failed, sending anyway", zap.Error(err))
		return false
	}
	return count > 0
}

func (s *ReminderService) sendReminder(appointment models.Appointment, recipient, phone, message string) string {
	if s.alreadySent(appointment.ID, recipient) {
		return dispatchSkipped
	}

	result, err := s.sender.SendSMS(phone, message)

	entry := models.ReminderLog{
		BusinessID:    appointment.BusinessID,
		AppointmentID: appointment.ID,
		CustomerID:    appointment.CustomerID,
		Recipient:     recipient,
		Phone:         utils.NormalizePhone(phone),
		Message:       message,
		SentAt:        time.Now(),
	}

	outcome := dispatchSent
	if err != nil {
		s.logger.Error("Failed to send reminder",
			zap.String("appointmentId", appointment.ID.String()),
			zap.String("recipient", recipient),
			zap.Error(err))
		entry.Status = models.ReminderFailed
		entry.ErrorMessage = err.Error()
		outcome = dispatchFailed
	} else {
		entry.Status = models.ReminderSent
		if result != nil {
			entry.MessageSID = result.MessageSID
		}
		s.logger.Info("Reminder sent",
			zap.String("appointmentId", appointment.ID.String()),
			zap.String("recipient", recipient),
			zap.String("sid", entry.MessageSID))
	}

	if err := s.db.Create(&entry).Error; err != nil {
		s.logger.Error("Failed to record reminder log",
			zap.String("appointmentId", appointment.ID.String()),
			zap.Error(err))
	}
	return outcome
}
